// Package store — in-memory Store implementation.
// Used as a fallback when PostgreSQL is not available (local dev, tests).
// Supports file-based snapshot persistence so data survives restarts.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Tenants    map[string]*models.Tenant                  `json:"tenants"`
	Neurocores map[string]*models.Neurocore               `json:"neurocores"`
	Agents     map[string]*models.Agent                   `json:"agents"`
	Templates  map[string]*models.AgentTemplate           `json:"templates"`
	Channels   map[string]*models.Channel                 `json:"channels"`
	Providers  map[string]*models.ChannelProvider         `json:"providers"`
	Niches     map[string]*models.Niche                   `json:"niches"`
	Prompts    map[models.PromptCategory][]*models.Prompt `json:"prompts"`
	PromptSeq  int64                                      `json:"prompt_seq"`
}

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu         sync.RWMutex
	tenants    map[string]*models.Tenant          // key: id
	neurocores map[string]*models.Neurocore       // key: id (agents/stats not stored on the row)
	agents     map[string]*models.Agent           // key: id
	templates  map[string]*models.AgentTemplate   // key: id
	channels   map[string]*models.Channel         // key: id
	providers  map[string]*models.ChannelProvider // key: id
	niches     map[string]*models.Niche           // key: id
	prompts    map[models.PromptCategory][]*models.Prompt
	promptSeq  int64 // mimics the BIGINT identity column

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // signals background goroutines to stop
}

// NewMemoryStore creates a new in-memory store.
// If SYNAPTIQ_DATA_DIR is set, data is persisted to a JSON file in that
// directory. Otherwise defaults to ~/.synaptiq/admin.json.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		tenants:    make(map[string]*models.Tenant),
		neurocores: make(map[string]*models.Neurocore),
		agents:     make(map[string]*models.Agent),
		templates:  make(map[string]*models.AgentTemplate),
		channels:   make(map[string]*models.Channel),
		providers:  make(map[string]*models.ChannelProvider),
		niches:     make(map[string]*models.Niche),
		prompts:    make(map[models.PromptCategory][]*models.Prompt),
		saveCh:     make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}

	dataDir := os.Getenv("SYNAPTIQ_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dataDir = filepath.Join(home, ".synaptiq")
		}
	}
	if dataDir != "" {
		m.snapshotPath = filepath.Join(dataDir, "admin.json")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
			m.snapshotPath = ""
		}
	}

	if m.snapshotPath != "" {
		m.loadSnapshot()
		go m.saveLoop()
	}

	log.Info().Str("snapshot", m.snapshotPath).Msg("Memory store configured")
	return m
}

// requestSave signals the background goroutine to persist data.
// Non-blocking: coalesces multiple rapid writes into one disk flush.
func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
		// Already pending
	}
}

// saveLoop runs in a goroutine, debouncing save requests (max 1 write per 500ms).
func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(500 * time.Millisecond) // debounce
			m.saveSnapshot()
		}
	}
}

// saveSnapshot persists all data to disk as JSON.
func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{
		Tenants:    m.tenants,
		Neurocores: m.neurocores,
		Agents:     m.agents,
		Templates:  m.templates,
		Channels:   m.channels,
		Providers:  m.providers,
		Niches:     m.niches,
		Prompts:    m.prompts,
		PromptSeq:  m.promptSeq,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// Write to temp file then rename for atomicity
	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write snapshot tmp")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to rename snapshot")
		return
	}

	log.Debug().Str("path", m.snapshotPath).Msg("Snapshot saved")
}

// loadSnapshot reads data from disk on startup.
func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", m.snapshotPath).Msg("No snapshot file found, starting fresh")
			return
		}
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Failed to read snapshot")
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to parse snapshot, starting fresh")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Tenants != nil {
		m.tenants = snap.Tenants
	}
	if snap.Neurocores != nil {
		m.neurocores = snap.Neurocores
	}
	if snap.Agents != nil {
		m.agents = snap.Agents
	}
	if snap.Templates != nil {
		m.templates = snap.Templates
	}
	if snap.Channels != nil {
		m.channels = snap.Channels
	}
	if snap.Providers != nil {
		m.providers = snap.Providers
	}
	if snap.Niches != nil {
		m.niches = snap.Niches
	}
	if snap.Prompts != nil {
		m.prompts = snap.Prompts
	}
	m.promptSeq = snap.PromptSeq

	log.Info().
		Int("tenants", len(m.tenants)).
		Int("neurocores", len(m.neurocores)).
		Int("agents", len(m.agents)).
		Int("templates", len(m.templates)).
		Int("channels", len(m.channels)).
		Str("path", m.snapshotPath).
		Msg("Snapshot loaded")
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close stops background goroutines and forces a final snapshot write.
// Safe to call multiple times (second call is a no-op).
func (m *MemoryStore) Close() error {
	select {
	case <-m.doneCh:
		return nil
	default:
		close(m.doneCh)
	}

	if m.snapshotPath != "" {
		m.saveSnapshot()
	}
	return nil
}

func (m *MemoryStore) Migrate(_ context.Context) error { return nil }

// ── List helpers ────────────────────────────────────────────

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortSlice orders rows by the requested field. Unknown fields fall back to
// created_at so a bad sort never errors, matching the hosted store's
// forgiving behavior.
func sortSlice[T any](rows []T, s Sort, created func(T) time.Time, updated func(T) time.Time, name func(T) string) {
	less := func(i, j int) bool {
		switch s.Field {
		case "name":
			return name(rows[i]) < name(rows[j])
		case "updated_at":
			return updated(rows[i]).Before(updated(rows[j]))
		default:
			return created(rows[i]).Before(created(rows[j]))
		}
	}
	if s.Desc {
		sort.SliceStable(rows, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(rows, less)
	}
}

// paginate slices one page out of the full result set.
func paginate[T any](rows []T, page Page) []T {
	page = page.Normalize()
	from := page.Offset()
	if from >= len(rows) {
		return []T{}
	}
	to := from + page.Size
	if to > len(rows) {
		to = len(rows)
	}
	return rows[from:to]
}

// ── Tenant Store ────────────────────────────────────────────

func (m *MemoryStore) ListTenants(_ context.Context, filter TenantFilter, s Sort, page Page) ([]models.Tenant, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Tenant, 0)
	for _, t := range m.tenants {
		if filter.Search != "" && !containsFold(t.Name, filter.Search) && !containsFold(t.CNPJ, filter.Search) {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.Plans) > 0 && !lo.Contains(filter.Plans, t.Plan) {
			continue
		}
		if filter.NicheID != "" && (t.NicheID == nil || *t.NicheID != filter.NicheID) {
			continue
		}
		if filter.NeurocoreID != "" && t.NeurocoreID != filter.NeurocoreID {
			continue
		}
		matched = append(matched, *t)
	}

	sortSlice(matched, s,
		func(t models.Tenant) time.Time { return t.CreatedAt },
		func(t models.Tenant) time.Time { return t.UpdatedAt },
		func(t models.Tenant) string { return t.Name })

	result := paginate(matched, page)
	for i := range result {
		m.embedTenantRefs(&result[i])
	}
	return result, len(matched), nil
}

// embedTenantRefs populates the neurocore and niche embeds. Caller holds mu.
func (m *MemoryStore) embedTenantRefs(t *models.Tenant) {
	if nc, ok := m.neurocores[t.NeurocoreID]; ok {
		t.Neurocore = &models.NeurocoreRef{ID: nc.ID, Name: nc.Name, IsActive: nc.IsActive}
	}
	if t.NicheID != nil {
		if n, ok := m.niches[*t.NicheID]; ok {
			t.Niche = &models.NicheRef{ID: n.ID, Name: n.Name}
		}
	}
}

func (m *MemoryStore) GetTenant(_ context.Context, id string) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "tenant", Key: id}
	}
	copy := *t
	m.embedTenantRefs(&copy)
	return &copy, nil
}

func (m *MemoryStore) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	copy := *tenant
	copy.Neurocore, copy.Niche = nil, nil
	m.tenants[tenant.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateTenant(_ context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	if _, ok := m.tenants[tenant.ID]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "tenant", Key: tenant.ID}
	}
	copy := *tenant
	copy.Neurocore, copy.Niche = nil, nil
	copy.UpdatedAt = time.Now().UTC()
	m.tenants[tenant.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	tenant.UpdatedAt = copy.UpdatedAt
	return nil
}

func (m *MemoryStore) TenantCNPJExists(_ context.Context, cnpj, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tenants {
		if t.CNPJ == cnpj && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// TenantStats counts the tenant's channels. The memory store holds no user,
// contact or conversation rows, so those counters stay zero.
func (m *MemoryStore) TenantStats(_ context.Context, tenantID string) (*models.TenantStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tenants[tenantID]; !ok {
		return nil, &ErrNotFound{Entity: "tenant", Key: tenantID}
	}
	stats := &models.TenantStats{}
	for _, ch := range m.channels {
		if ch.TenantID == tenantID {
			stats.TotalChannels++
		}
	}
	return stats, nil
}

func (m *MemoryStore) CountTenantsByNeurocore(_ context.Context, neurocoreID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, t := range m.tenants {
		if t.NeurocoreID == neurocoreID {
			count++
		}
	}
	return count, nil
}

// ── Neurocore Store ─────────────────────────────────────────

func (m *MemoryStore) ListNeurocores(_ context.Context, filter NeurocoreFilter, s Sort, page Page) ([]models.Neurocore, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Neurocore, 0)
	for _, nc := range m.neurocores {
		if filter.Search != "" && !containsFold(nc.Name, filter.Search) && !containsFold(nc.Description, filter.Search) {
			continue
		}
		if filter.IsActive != nil && nc.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, *nc)
	}

	sortSlice(matched, s,
		func(n models.Neurocore) time.Time { return n.CreatedAt },
		func(n models.Neurocore) time.Time { return n.UpdatedAt },
		func(n models.Neurocore) string { return n.Name })

	result := paginate(matched, page)
	for i := range result {
		m.embedNeurocore(&result[i])
	}
	return result, len(matched), nil
}

// embedNeurocore populates agents and stats. Caller holds mu.
func (m *MemoryStore) embedNeurocore(nc *models.Neurocore) {
	agents := m.agentsOf(nc.ID)
	tenants := 0
	for _, t := range m.tenants {
		if t.NeurocoreID == nc.ID {
			tenants++
		}
	}
	nc.Agents = agents
	nc.Stats = &models.NeurocoreStats{TotalAgents: len(agents), TotalTenants: tenants}
}

// agentsOf returns the agents of a neurocore, oldest first. Caller holds mu.
func (m *MemoryStore) agentsOf(neurocoreID string) []models.Agent {
	agents := make([]models.Agent, 0)
	for _, a := range m.agents {
		if a.NeurocoreID == neurocoreID {
			agents = append(agents, *a)
		}
	}
	sort.SliceStable(agents, func(i, j int) bool { return agents[i].CreatedAt.Before(agents[j].CreatedAt) })
	return agents
}

func (m *MemoryStore) GetNeurocore(_ context.Context, id string) (*models.Neurocore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nc, ok := m.neurocores[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "neurocore", Key: id}
	}
	copy := *nc
	m.embedNeurocore(&copy)
	return &copy, nil
}

func (m *MemoryStore) CreateNeurocore(_ context.Context, nc *models.Neurocore) error {
	m.mu.Lock()
	copy := *nc
	copy.Agents, copy.Stats = nil, nil
	m.neurocores[nc.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateNeurocore(_ context.Context, nc *models.Neurocore) error {
	m.mu.Lock()
	if _, ok := m.neurocores[nc.ID]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "neurocore", Key: nc.ID}
	}
	copy := *nc
	copy.Agents, copy.Stats = nil, nil
	copy.UpdatedAt = time.Now().UTC()
	m.neurocores[nc.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	nc.UpdatedAt = copy.UpdatedAt
	return nil
}

func (m *MemoryStore) DeleteNeurocore(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.neurocores[id]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "neurocore", Key: id}
	}
	delete(m.neurocores, id)
	// Cascade: the SQL schema deletes owned agents via FK.
	for aid, a := range m.agents {
		if a.NeurocoreID == id {
			delete(m.agents, aid)
		}
	}
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) NeurocoreWorkflowIDExists(_ context.Context, workflowID, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, nc := range m.neurocores {
		if nc.WorkflowID == workflowID && nc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ── Agent Store ─────────────────────────────────────────────

func (m *MemoryStore) ListAgentsByNeurocore(_ context.Context, neurocoreID string) ([]models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agentsOf(neurocoreID), nil
}

func (m *MemoryStore) CreateAgent(_ context.Context, agent *models.Agent) error {
	m.mu.Lock()
	if _, ok := m.neurocores[agent.NeurocoreID]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "neurocore", Key: agent.NeurocoreID}
	}
	copy := *agent
	m.agents[agent.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateAgent(_ context.Context, agent *models.Agent) error {
	m.mu.Lock()
	existing, ok := m.agents[agent.ID]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "agent", Key: agent.ID}
	}
	copy := *agent
	copy.NeurocoreID = existing.NeurocoreID // agents never move between cores
	copy.CreatedAt = existing.CreatedAt
	copy.UpdatedAt = time.Now().UTC()
	m.agents[agent.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	agent.UpdatedAt = copy.UpdatedAt
	return nil
}

func (m *MemoryStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.agents[id]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "agent", Key: id}
	}
	delete(m.agents, id)
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Agent Template Store ────────────────────────────────────

func (m *MemoryStore) ListTemplates(_ context.Context, filter TemplateFilter, s Sort, page Page) ([]models.AgentTemplate, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.AgentTemplate, 0)
	for _, t := range m.templates {
		if filter.Search != "" && !containsFold(t.Name, filter.Search) {
			continue
		}
		if filter.Function != "" && t.Function != filter.Function {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, *t)
	}

	sortSlice(matched, s,
		func(t models.AgentTemplate) time.Time { return t.CreatedAt },
		func(t models.AgentTemplate) time.Time { return t.UpdatedAt },
		func(t models.AgentTemplate) string { return t.Name })

	return paginate(matched, page), len(matched), nil
}

func (m *MemoryStore) GetTemplate(_ context.Context, id string) (*models.AgentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "agent template", Key: id}
	}
	copy := *t
	return &copy, nil
}

func (m *MemoryStore) ListActiveTemplates(_ context.Context) ([]models.AgentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active := make([]models.AgentTemplate, 0)
	for _, t := range m.templates {
		if t.IsActive {
			active = append(active, *t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return active, nil
}

func (m *MemoryStore) CreateTemplate(_ context.Context, t *models.AgentTemplate) error {
	m.mu.Lock()
	copy := *t
	m.templates[t.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateTemplate(_ context.Context, t *models.AgentTemplate) error {
	m.mu.Lock()
	if _, ok := m.templates[t.ID]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "agent template", Key: t.ID}
	}
	copy := *t
	copy.UpdatedAt = time.Now().UTC()
	m.templates[t.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	t.UpdatedAt = copy.UpdatedAt
	return nil
}

// ── Channel Store ───────────────────────────────────────────

func (m *MemoryStore) ListChannelsByTenant(_ context.Context, tenantID string) ([]models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	channels := make([]models.Channel, 0)
	for _, ch := range m.channels {
		if ch.TenantID == tenantID {
			copy := *ch
			m.embedProvider(&copy)
			channels = append(channels, copy)
		}
	}
	sort.SliceStable(channels, func(i, j int) bool { return channels[j].CreatedAt.Before(channels[i].CreatedAt) })
	return channels, nil
}

// embedProvider populates the provider ref. Caller holds mu.
func (m *MemoryStore) embedProvider(ch *models.Channel) {
	if p, ok := m.providers[ch.ProviderID]; ok {
		ch.Provider = &models.ProviderRef{ID: p.ID, Name: p.Name, IdentifierCode: p.IdentifierCode}
	}
}

func (m *MemoryStore) GetChannel(_ context.Context, id string) (*models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "channel", Key: id}
	}
	copy := *ch
	m.embedProvider(&copy)
	return &copy, nil
}

func (m *MemoryStore) CreateChannel(_ context.Context, ch *models.Channel) error {
	m.mu.Lock()
	copy := *ch
	copy.Provider = nil
	m.channels[ch.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateChannel(_ context.Context, ch *models.Channel) error {
	m.mu.Lock()
	if _, ok := m.channels[ch.ID]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "channel", Key: ch.ID}
	}
	copy := *ch
	copy.Provider = nil
	copy.UpdatedAt = time.Now().UTC()
	m.channels[ch.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	ch.UpdatedAt = copy.UpdatedAt
	return nil
}

func (m *MemoryStore) DeleteChannel(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.channels[id]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "channel", Key: id}
	}
	delete(m.channels, id)
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ChannelNumberExists(_ context.Context, tenantID, number, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.channels {
		if ch.TenantID == tenantID && ch.Number == number && ch.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ── Channel Provider & Niche Stores ─────────────────────────

func (m *MemoryStore) ListProviders(_ context.Context) ([]models.ChannelProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	providers := lo.MapToSlice(m.providers, func(_ string, p *models.ChannelProvider) models.ChannelProvider { return *p })
	sort.SliceStable(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })
	return providers, nil
}

func (m *MemoryStore) GetProvider(_ context.Context, id string) (*models.ChannelProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "channel provider", Key: id}
	}
	copy := *p
	return &copy, nil
}

// SeedProvider inserts a channel provider. Providers are managed outside the
// admin plane; this exists for dev seeding and tests.
func (m *MemoryStore) SeedProvider(p *models.ChannelProvider) {
	m.mu.Lock()
	copy := *p
	m.providers[p.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
}

func (m *MemoryStore) ListNiches(_ context.Context) ([]models.Niche, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	niches := lo.MapToSlice(m.niches, func(_ string, n *models.Niche) models.Niche { return *n })
	sort.SliceStable(niches, func(i, j int) bool { return niches[i].Name < niches[j].Name })
	return niches, nil
}

// SeedNiche inserts a niche. Same story as SeedProvider.
func (m *MemoryStore) SeedNiche(n *models.Niche) {
	m.mu.Lock()
	copy := *n
	m.niches[n.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
}

// ── Prompt Store ────────────────────────────────────────────

func (m *MemoryStore) GetPrompt(_ context.Context, category models.PromptCategory, tenantID string) (*models.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.prompts[category] {
		if p.TenantID != nil && *p.TenantID == tenantID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetDefaultPrompt(_ context.Context, category models.PromptCategory) (*models.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.prompts[category] {
		if p.TenantID == nil {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpsertPrompt(_ context.Context, category models.PromptCategory, tenantID string, content models.PromptContent) (*models.Prompt, error) {
	m.mu.Lock()
	defer func() { m.mu.Unlock(); m.requestSave() }()

	now := time.Now().UTC()
	for _, p := range m.prompts[category] {
		if p.TenantID != nil && *p.TenantID == tenantID {
			p.Content = content
			p.UpdatedAt = now
			copy := *p
			return &copy, nil
		}
	}

	m.promptSeq++
	tid := tenantID
	row := &models.Prompt{
		ID:        m.promptSeq,
		Category:  category,
		TenantID:  &tid,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.prompts[category] = append(m.prompts[category], row)
	copy := *row
	return &copy, nil
}

// SeedDefaultPrompt inserts the platform default row for a category.
// The admin plane itself never writes default rows.
func (m *MemoryStore) SeedDefaultPrompt(category models.PromptCategory, content models.PromptContent) {
	m.mu.Lock()
	now := time.Now().UTC()
	seeded := false
	for _, p := range m.prompts[category] {
		if p.TenantID == nil {
			p.Content = content
			p.UpdatedAt = now
			seeded = true
			break
		}
	}
	if !seeded {
		m.promptSeq++
		m.prompts[category] = append(m.prompts[category], &models.Prompt{
			ID:        m.promptSeq,
			Category:  category,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	m.mu.Unlock()
	m.requestSave()
}
