package server

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// Seeded reference rows must be addressable through the API, whose inputs
// validate foreign keys as UUIDs.
func TestSeedReferenceDataUsesUUIDs(t *testing.T) {
	t.Setenv("SYNAPTIQ_DATA_DIR", t.TempDir())
	m := store.NewMemoryStore()
	defer m.Close()
	seedReferenceData(m)

	ctx := context.Background()
	providers, err := m.ListProviders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(providers))
	}
	for _, p := range providers {
		if _, err := uuid.Parse(p.ID); err != nil {
			t.Errorf("provider %q id %q is not a UUID: %v", p.IdentifierCode, p.ID, err)
		}
	}

	niches, err := m.ListNiches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(niches) != 3 {
		t.Fatalf("niches = %d, want 3", len(niches))
	}
	for _, n := range niches {
		if _, err := uuid.Parse(n.ID); err != nil {
			t.Errorf("niche %q id %q is not a UUID: %v", n.Name, n.ID, err)
		}
	}

	// A channel naming a seeded provider passes input validation.
	in := validation.ChannelInput{
		TenantID:          uuid.NewString(),
		ProviderID:        providers[0].ID,
		Name:              "Main line",
		Number:            "+5511987654321",
		InstanceName:      "acme-main",
		APIURL:            "https://api.provider.example/v1",
		ProviderChannelID: "ext-1",
	}
	if err := validation.Validate(in); err != nil {
		t.Errorf("seeded provider id rejected: %v", err)
	}
}

// Reseeding after a snapshot reload must not duplicate reference rows.
func TestSeedReferenceDataIdempotent(t *testing.T) {
	t.Setenv("SYNAPTIQ_DATA_DIR", t.TempDir())
	m := store.NewMemoryStore()
	defer m.Close()

	seedReferenceData(m)
	first, err := m.GetDefaultPrompt(context.Background(), models.PromptSystem)
	if err != nil || first == nil {
		t.Fatalf("default prompt after seed: %v, %v", first, err)
	}
	seedReferenceData(m)

	providers, _ := m.ListProviders(context.Background())
	if len(providers) != 2 {
		t.Errorf("providers after reseed = %d, want 2", len(providers))
	}
	niches, _ := m.ListNiches(context.Background())
	if len(niches) != 3 {
		t.Errorf("niches after reseed = %d, want 3", len(niches))
	}

	def, err := m.GetDefaultPrompt(context.Background(), models.PromptSystem)
	if err != nil || def == nil {
		t.Fatalf("default prompt after reseed: %v, %v", def, err)
	}
	if def.ID != first.ID {
		t.Errorf("default prompt re-inserted: id = %d, want %d", def.ID, first.ID)
	}
}
