// Package admin implements the dashboard's application services: entity
// policy (uniqueness pre-checks, guarded deletes, soft deletes), the
// neurocore edit sessions, and prompt fallback resolution. Handlers stay
// thin; everything with a rule lives here.
package admin

import (
	"context"
	"time"

	"github.com/synaptiq/synaptiq/admin-plane/internal/drafts"
	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// Service carries the shared dependencies of the admin operations.
type Service struct {
	store    store.Store
	hub      *notify.Hub
	sessions *drafts.Manager
}

// NewService wires the admin service. sessionTTL 0 uses the default.
func NewService(st store.Store, hub *notify.Hub, sessionTTL time.Duration) *Service {
	return &Service{
		store:    st,
		hub:      hub,
		sessions: drafts.NewManager(sessionTTL),
	}
}

// Shutdown stops background work (session sweep).
func (s *Service) Shutdown() {
	s.sessions.Shutdown()
}

// ListProviders returns the channel provider catalog.
func (s *Service) ListProviders(ctx context.Context) ([]models.ChannelProvider, error) {
	return s.store.ListProviders(ctx)
}

// ListNiches returns the market niche catalog.
func (s *Service) ListNiches(ctx context.Context) ([]models.Niche, error) {
	return s.store.ListNiches(ctx)
}

func (s *Service) publish(eventType, entity, id string, sev notify.Severity, msg string) {
	if s.hub != nil {
		s.hub.Publish(notify.NewEvent(eventType, entity, id, sev, msg))
	}
}
