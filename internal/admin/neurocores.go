package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/synaptiq/synaptiq/admin-plane/internal/drafts"
	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (s *Service) ListNeurocores(ctx context.Context, filter store.NeurocoreFilter, sort store.Sort, page store.Page) ([]models.Neurocore, int, error) {
	return s.store.ListNeurocores(ctx, filter, sort, page)
}

func (s *Service) GetNeurocore(ctx context.Context, id string) (*models.Neurocore, error) {
	return s.store.GetNeurocore(ctx, id)
}

// checkWorkflowID enforces global workflow id uniqueness before any write.
func (s *Service) checkWorkflowID(ctx context.Context, workflowID, excludeID string) error {
	taken, err := s.store.NeurocoreWorkflowIDExists(ctx, workflowID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return &store.ErrConflict{Entity: "neurocore", Field: "workflow_id", Value: workflowID}
	}
	return nil
}

// SetNeurocoreActive flips the active flag.
func (s *Service) SetNeurocoreActive(ctx context.Context, id string, active bool) (*models.Neurocore, error) {
	nc, err := s.store.GetNeurocore(ctx, id)
	if err != nil {
		return nil, err
	}
	nc.IsActive = active
	if err := s.store.UpdateNeurocore(ctx, nc); err != nil {
		return nil, err
	}
	return s.store.GetNeurocore(ctx, id)
}

// DeleteNeurocore refuses while tenants still reference the core. Agents
// cascade at the storage layer.
func (s *Service) DeleteNeurocore(ctx context.Context, id string) error {
	nc, err := s.store.GetNeurocore(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.store.CountTenantsByNeurocore(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &store.ErrInUse{Entity: "neurocore", Key: id, RefBy: "tenant", Count: count}
	}
	if err := s.store.DeleteNeurocore(ctx, id); err != nil {
		return err
	}
	log.Info().Str("neurocore_id", id).Msg("Neurocore deleted")
	s.publish("neurocore.deleted", "neurocore", id, "success", "Neurocore "+nc.Name+" deleted")
	return nil
}

// ── Edit sessions ───────────────────────────────────────────

// OpenEditSession opens a draft session for a neurocore's agent list.
// neurocoreID is empty when drafting a brand-new core.
func (s *Service) OpenEditSession(ctx context.Context, neurocoreID string) (*drafts.Session, error) {
	var agents []models.Agent
	if neurocoreID != "" {
		nc, err := s.store.GetNeurocore(ctx, neurocoreID)
		if err != nil {
			return nil, err
		}
		agents = nc.Agents
	}
	return s.sessions.Open(neurocoreID, agents), nil
}

// CloseEditSession discards a session without saving.
func (s *Service) CloseEditSession(sessionID string) {
	s.sessions.Close(sessionID)
}

// DraftAgents returns the session's visible agent list.
func (s *Service) DraftAgents(sessionID string) ([]drafts.VisibleEntry, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	var visible []drafts.VisibleEntry
	sess.WithList(func(l *drafts.List) { visible = l.Visible() })
	return visible, nil
}

// AddDraftAgent appends a create-tagged agent to the session.
func (s *Service) AddDraftAgent(sessionID string, in validation.AgentInput) error {
	if err := validation.Validate(in); err != nil {
		return err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.WithList(func(l *drafts.List) {
		l.Add(models.AgentFields{Name: in.Name, Function: in.Function, Reactive: in.Reactive})
	})
	return nil
}

// EditDraftAgent replaces the fields of the entry at index. Indexes arrive
// from clients, so a delete-tagged entry is refused as a conflict rather
// than tripping the list's internal assert.
func (s *Service) EditDraftAgent(sessionID string, index int, in validation.AgentInput) error {
	if err := validation.Validate(in); err != nil {
		return err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.WithList(func(l *drafts.List) {
		if l.Deleted(index) {
			err = &store.ErrConflict{Entity: "draft_agent", Field: "index", Value: strconv.Itoa(index)}
			return
		}
		err = l.Edit(index, models.AgentFields{Name: in.Name, Function: in.Function, Reactive: in.Reactive})
	})
	return err
}

// RemoveDraftAgent removes the entry at index from the session.
func (s *Service) RemoveDraftAgent(sessionID string, index int) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.WithList(func(l *drafts.List) {
		err = l.Remove(index)
	})
	return err
}

// SaveNeurocore persists the neurocore from the session's form input, then
// resolves the session's draft agents against it. Agent writes are
// independent; failures are reported (and published) without undoing
// sibling writes or the neurocore save itself.
func (s *Service) SaveNeurocore(ctx context.Context, sessionID string, in validation.NeurocoreInput) (*models.Neurocore, drafts.Result, error) {
	var res drafts.Result

	if err := validation.Validate(in); err != nil {
		return nil, res, err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, res, err
	}

	var nc *models.Neurocore
	if sess.NeurocoreID == "" {
		if err := s.checkWorkflowID(ctx, in.WorkflowID, ""); err != nil {
			return nil, res, err
		}
		now := time.Now().UTC()
		nc = &models.Neurocore{
			ID:          uuid.NewString(),
			Name:        in.Name,
			Description: in.Description,
			WorkflowID:  in.WorkflowID,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.IsActive != nil {
			nc.IsActive = *in.IsActive
		}
		if err := s.store.CreateNeurocore(ctx, nc); err != nil {
			return nil, res, err
		}
		sess.NeurocoreID = nc.ID
		s.publish("neurocore.created", "neurocore", nc.ID, "success", "Neurocore "+nc.Name+" created")
	} else {
		if err := s.checkWorkflowID(ctx, in.WorkflowID, sess.NeurocoreID); err != nil {
			return nil, res, err
		}
		nc, err = s.store.GetNeurocore(ctx, sess.NeurocoreID)
		if err != nil {
			return nil, res, err
		}
		nc.Name = in.Name
		nc.Description = in.Description
		nc.WorkflowID = in.WorkflowID
		if in.IsActive != nil {
			nc.IsActive = *in.IsActive
		}
		if err := s.store.UpdateNeurocore(ctx, nc); err != nil {
			return nil, res, err
		}
		s.publish("neurocore.updated", "neurocore", nc.ID, "success", "Neurocore "+nc.Name+" updated")
	}

	// The core is durable; commit the draft agents against it.
	sess.WithList(func(l *drafts.List) {
		res = l.Resolve(ctx, s.store, nc.ID)
	})
	for _, f := range res.Failures {
		log.Warn().Err(f.Err).Str("neurocore_id", nc.ID).Str("agent", f.Name).
			Str("action", string(f.Action)).Msg("Agent write failed during save")
		s.publish("neurocore.agent_write_failed", "agent", "", notify.SeverityWarning,
			fmt.Sprintf("Agent %q: %s failed: %v", f.Name, f.Action, f.Err))
	}
	s.sessions.Close(sessionID)

	final, err := s.store.GetNeurocore(ctx, nc.ID)
	return final, res, err
}
