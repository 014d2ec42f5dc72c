package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	t.Setenv("SYNAPTIQ_DATA_DIR", t.TempDir())
	m := NewMemoryStore()
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func seedNeurocore(t *testing.T, m *MemoryStore, name, workflowID string) *models.Neurocore {
	t.Helper()
	nc := &models.Neurocore{
		ID:         uuid.NewString(),
		Name:       name,
		WorkflowID: workflowID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := m.CreateNeurocore(context.Background(), nc); err != nil {
		t.Fatalf("CreateNeurocore: %v", err)
	}
	return nc
}

func seedTenant(t *testing.T, m *MemoryStore, name, cnpj, neurocoreID string) *models.Tenant {
	t.Helper()
	tn := &models.Tenant{
		ID:          uuid.NewString(),
		Name:        name,
		CNPJ:        cnpj,
		Plan:        models.PlanBasic,
		NeurocoreID: neurocoreID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := m.CreateTenant(context.Background(), tn); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	return tn
}

func TestTenantCRUD(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Sales Core", "wf-sales")

	tn := seedTenant(t, m, "Acme Ltda", "11222333000181", nc.ID)

	got, err := m.GetTenant(ctx, tn.ID)
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.Name != "Acme Ltda" {
		t.Errorf("name = %q, want Acme Ltda", got.Name)
	}
	if got.Neurocore == nil || got.Neurocore.Name != "Sales Core" {
		t.Errorf("neurocore ref not embedded: %+v", got.Neurocore)
	}

	got.Name = "Acme Corp"
	if err := m.UpdateTenant(ctx, got); err != nil {
		t.Fatalf("UpdateTenant: %v", err)
	}
	got, _ = m.GetTenant(ctx, tn.ID)
	if got.Name != "Acme Corp" {
		t.Errorf("name after update = %q", got.Name)
	}

	if _, err := m.GetTenant(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("GetTenant(missing) = %v, want not found", err)
	}
}

func TestTenantListFilters(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")

	a := seedTenant(t, m, "Alpha Foods", "11222333000181", nc.ID)
	b := seedTenant(t, m, "Beta Motors", "22333444000190", nc.ID)
	b.Plan = models.PlanPro
	b.IsActive = false
	if err := m.UpdateTenant(ctx, b); err != nil {
		t.Fatal(err)
	}

	tenants, total, err := m.ListTenants(ctx, TenantFilter{Search: "alpha"}, DefaultSort, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(tenants) != 1 || tenants[0].ID != a.ID {
		t.Errorf("search filter: got %d/%d", len(tenants), total)
	}

	// Search also matches CNPJ.
	_, total, _ = m.ListTenants(ctx, TenantFilter{Search: "22333444"}, DefaultSort, Page{})
	if total != 1 {
		t.Errorf("cnpj search total = %d, want 1", total)
	}

	active := true
	_, total, _ = m.ListTenants(ctx, TenantFilter{IsActive: &active}, DefaultSort, Page{})
	if total != 1 {
		t.Errorf("active filter total = %d, want 1", total)
	}

	_, total, _ = m.ListTenants(ctx, TenantFilter{Plans: []models.TenantPlan{models.PlanPro}}, DefaultSort, Page{})
	if total != 1 {
		t.Errorf("plan filter total = %d, want 1", total)
	}
}

func TestTenantPagination(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")

	for i := 0; i < 25; i++ {
		seedTenant(t, m, "Tenant", uuid.NewString(), nc.ID)
	}

	tenants, total, err := m.ListTenants(ctx, TenantFilter{}, DefaultSort, Page{Number: 3, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(tenants) != 5 {
		t.Errorf("page 3 len = %d, want 5", len(tenants))
	}

	tenants, _, _ = m.ListTenants(ctx, TenantFilter{}, DefaultSort, Page{Number: 4, Size: 10})
	if len(tenants) != 0 {
		t.Errorf("page past end len = %d, want 0", len(tenants))
	}
}

func TestTenantCNPJExists(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")
	tn := seedTenant(t, m, "Acme", "11222333000181", nc.ID)

	exists, _ := m.TenantCNPJExists(ctx, "11222333000181", "")
	if !exists {
		t.Error("expected CNPJ to exist")
	}
	// Excluding the owning tenant: an update keeping its own CNPJ is fine.
	exists, _ = m.TenantCNPJExists(ctx, "11222333000181", tn.ID)
	if exists {
		t.Error("expected CNPJ excluded for its own tenant")
	}
	exists, _ = m.TenantCNPJExists(ctx, "99888777000166", "")
	if exists {
		t.Error("unknown CNPJ reported as existing")
	}
}

func TestTenantStats(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")
	tn := seedTenant(t, m, "Acme", "11222333000181", nc.ID)
	other := seedTenant(t, m, "Other", "22333444000190", nc.ID)

	for i, owner := range []string{tn.ID, tn.ID, other.ID} {
		ch := &models.Channel{
			ID:            uuid.NewString(),
			TenantID:      owner,
			Name:          "Line",
			Number:        "+551198765432" + string(rune('0'+i)),
			WaitFragments: models.DefaultWaitFragments,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		if err := m.CreateChannel(ctx, ch); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := m.TenantStats(ctx, tn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalChannels != 2 {
		t.Errorf("channels = %d, want 2", stats.TotalChannels)
	}
	if stats.TotalUsers != 0 || stats.TotalContacts != 0 || stats.TotalConversations != 0 {
		t.Errorf("platform counters should be zero here: %+v", stats)
	}

	if _, err := m.TenantStats(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("TenantStats(missing) = %v, want not found", err)
	}
}

func TestNeurocoreDeleteCascadesAgents(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")

	agent := &models.Agent{
		ID:          uuid.NewString(),
		Name:        "Greeter",
		Function:    models.FunctionAttendant,
		Reactive:    true,
		NeurocoreID: nc.ID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := m.CreateAgent(ctx, agent); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetNeurocore(ctx, nc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Agents) != 1 || got.Stats.TotalAgents != 1 {
		t.Fatalf("agents = %d, stats = %+v", len(got.Agents), got.Stats)
	}

	if err := m.DeleteNeurocore(ctx, nc.ID); err != nil {
		t.Fatal(err)
	}
	agents, _ := m.ListAgentsByNeurocore(ctx, nc.ID)
	if len(agents) != 0 {
		t.Errorf("agents after cascade = %d, want 0", len(agents))
	}
}

func TestNeurocoreWorkflowIDExists(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")

	exists, _ := m.NeurocoreWorkflowIDExists(ctx, "wf-core", "")
	if !exists {
		t.Error("expected workflow id to exist")
	}
	exists, _ = m.NeurocoreWorkflowIDExists(ctx, "wf-core", nc.ID)
	if exists {
		t.Error("expected workflow id excluded for its own core")
	}
}

func TestCountTenantsByNeurocore(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	ncA := seedNeurocore(t, m, "A", "wf-a")
	ncB := seedNeurocore(t, m, "B", "wf-b")
	seedTenant(t, m, "T1", "11222333000181", ncA.ID)
	seedTenant(t, m, "T2", "22333444000190", ncA.ID)

	n, err := m.CountTenantsByNeurocore(ctx, ncA.ID)
	if err != nil || n != 2 {
		t.Errorf("count A = %d (%v), want 2", n, err)
	}
	n, _ = m.CountTenantsByNeurocore(ctx, ncB.ID)
	if n != 0 {
		t.Errorf("count B = %d, want 0", n)
	}
}

func TestAgentUpdatePreservesOwnership(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")

	created := time.Now().UTC().Add(-time.Hour)
	agent := &models.Agent{
		ID:          uuid.NewString(),
		Name:        "Greeter",
		Function:    models.FunctionAttendant,
		NeurocoreID: nc.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if err := m.CreateAgent(ctx, agent); err != nil {
		t.Fatal(err)
	}

	update := &models.Agent{ID: agent.ID, Name: "Closer", Function: models.FunctionIntention}
	if err := m.UpdateAgent(ctx, update); err != nil {
		t.Fatal(err)
	}

	agents, _ := m.ListAgentsByNeurocore(ctx, nc.ID)
	if len(agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(agents))
	}
	got := agents[0]
	if got.Name != "Closer" || got.Function != models.FunctionIntention {
		t.Errorf("fields not updated: %+v", got)
	}
	if got.NeurocoreID != nc.ID {
		t.Error("update lost neurocore ownership")
	}
	if !got.CreatedAt.Equal(created) {
		t.Error("update clobbered created_at")
	}
}

func TestTemplateFiltersAndActiveList(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()

	mk := func(name string, fn models.AgentFunction, active bool) {
		tpl := &models.AgentTemplate{
			ID:          uuid.NewString(),
			Name:        name,
			Function:    fn,
			Limitations: []string{"no pricing talk"},
			IsActive:    active,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := m.CreateTemplate(ctx, tpl); err != nil {
			t.Fatal(err)
		}
	}
	mk("SDR", models.FunctionAttendant, true)
	mk("Router", models.FunctionIntention, true)
	mk("Retired", models.FunctionAttendant, false)

	_, total, err := m.ListTemplates(ctx, TemplateFilter{Function: models.FunctionAttendant}, DefaultSort, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("function filter total = %d, want 2", total)
	}

	active, err := m.ListActiveTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active templates = %d, want 2", len(active))
	}
}

func TestChannelNumberScopedPerTenant(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")
	tnA := seedTenant(t, m, "A", "11222333000181", nc.ID)
	tnB := seedTenant(t, m, "B", "22333444000190", nc.ID)

	ch := &models.Channel{
		ID:            uuid.NewString(),
		TenantID:      tnA.ID,
		Name:          "Main line",
		Number:        "+5511987654321",
		WaitFragments: models.DefaultWaitFragments,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := m.CreateChannel(ctx, ch); err != nil {
		t.Fatal(err)
	}

	exists, _ := m.ChannelNumberExists(ctx, tnA.ID, "+5511987654321", "")
	if !exists {
		t.Error("expected number to exist for tenant A")
	}
	// Same number on another tenant doesn't conflict.
	exists, _ = m.ChannelNumberExists(ctx, tnB.ID, "+5511987654321", "")
	if exists {
		t.Error("number conflict leaked across tenants")
	}
	exists, _ = m.ChannelNumberExists(ctx, tnA.ID, "+5511987654321", ch.ID)
	if exists {
		t.Error("expected number excluded for its own channel")
	}
}

func TestPromptFallbackAndUpsert(t *testing.T) {
	m := newTestStore(t)
	ctx := context.Background()
	nc := seedNeurocore(t, m, "Core", "wf-core")
	tn := seedTenant(t, m, "Acme", "11222333000181", nc.ID)

	m.SeedDefaultPrompt(models.PromptSystem, models.PromptContent{Prompt: "platform default"})

	// No tenant row yet.
	p, err := m.GetPrompt(ctx, models.PromptSystem, tn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Fatalf("expected no tenant prompt, got %+v", p)
	}

	def, err := m.GetDefaultPrompt(ctx, models.PromptSystem)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.Content.Prompt != "platform default" {
		t.Fatalf("default prompt = %+v", def)
	}
	if !def.IsDefault() {
		t.Error("default prompt should report IsDefault")
	}

	// First upsert inserts a tenant row.
	p, err = m.UpsertPrompt(ctx, models.PromptSystem, tn.ID, models.PromptContent{Prompt: "custom"})
	if err != nil {
		t.Fatal(err)
	}
	if p.TenantID == nil || *p.TenantID != tn.ID {
		t.Fatalf("upsert tenant id = %v", p.TenantID)
	}
	firstID := p.ID

	// Second upsert updates in place, never touches the default row.
	p, err = m.UpsertPrompt(ctx, models.PromptSystem, tn.ID, models.PromptContent{Prompt: "custom v2"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != firstID {
		t.Errorf("upsert created a second row: %d vs %d", p.ID, firstID)
	}
	if p.Content.Prompt != "custom v2" {
		t.Errorf("content = %q", p.Content.Prompt)
	}

	def, _ = m.GetDefaultPrompt(ctx, models.PromptSystem)
	if def.Content.Prompt != "platform default" {
		t.Errorf("default row mutated: %q", def.Content.Prompt)
	}

	// Guard rails prompts carry two bodies.
	p, err = m.UpsertPrompt(ctx, models.PromptGuardRails, tn.ID, models.PromptContent{
		PromptJailbreak: "jb", PromptNSFW: "nsfw",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Content.PromptJailbreak != "jb" || p.Content.PromptNSFW != "nsfw" {
		t.Errorf("guard rails content = %+v", p.Content)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SYNAPTIQ_DATA_DIR", dir)

	m := NewMemoryStore()
	nc := seedNeurocore(t, m, "Core", "wf-core")
	seedTenant(t, m, "Acme", "11222333000181", nc.ID)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m2 := NewMemoryStore()
	defer m2.Close()

	_, total, err := m2.ListTenants(context.Background(), TenantFilter{}, DefaultSort, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("tenants after reload = %d, want 1", total)
	}
	cores, _, err := m2.ListNeurocores(context.Background(), NeurocoreFilter{}, DefaultSort, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cores) != 1 || cores[0].WorkflowID != "wf-core" {
		t.Errorf("neurocores after reload = %+v", cores)
	}
}
