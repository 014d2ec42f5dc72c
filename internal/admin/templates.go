package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (s *Service) ListTemplates(ctx context.Context, filter store.TemplateFilter, sort store.Sort, page store.Page) ([]models.AgentTemplate, int, error) {
	return s.store.ListTemplates(ctx, filter, sort, page)
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*models.AgentTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

// ListActiveTemplates returns the templates offered when adding an agent.
func (s *Service) ListActiveTemplates(ctx context.Context) ([]models.AgentTemplate, error) {
	return s.store.ListActiveTemplates(ctx)
}

func templateFromInput(in validation.TemplateInput) models.AgentTemplate {
	guideline := make([]models.GuidelineStep, len(in.Guideline))
	for i, g := range in.Guideline {
		guideline[i] = models.GuidelineStep{Title: g.Title, Steps: g.Steps}
	}
	return models.AgentTemplate{
		Name:              in.Name,
		Function:          in.Function,
		Reactive:          in.Reactive,
		PersonaName:       in.PersonaName,
		Age:               in.Age,
		Gender:            in.Gender,
		Objective:         in.Objective,
		Communication:     in.Communication,
		Personality:       in.Personality,
		Limitations:       in.Limitations,
		Instructions:      in.Instructions,
		Guideline:         guideline,
		Rules:             in.Rules,
		OtherInstructions: in.OtherInstructions,
	}
}

// CreateTemplate validates and inserts a reusable agent template.
func (s *Service) CreateTemplate(ctx context.Context, in validation.TemplateInput, createdBy *string) (*models.AgentTemplate, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	tpl := templateFromInput(in)
	tpl.ID = uuid.NewString()
	tpl.IsActive = true
	if in.IsActive != nil {
		tpl.IsActive = *in.IsActive
	}
	tpl.CreatedBy = createdBy
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	if err := s.store.CreateTemplate(ctx, &tpl); err != nil {
		return nil, err
	}
	s.publish("template.created", "agent_template", tpl.ID, "success", "Template "+tpl.Name+" created")
	return &tpl, nil
}

// UpdateTemplate validates and saves changes to a template.
func (s *Service) UpdateTemplate(ctx context.Context, id string, in validation.TemplateInput) (*models.AgentTemplate, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	existing, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl := templateFromInput(in)
	tpl.ID = existing.ID
	tpl.IsActive = existing.IsActive
	if in.IsActive != nil {
		tpl.IsActive = *in.IsActive
	}
	tpl.CreatedBy = existing.CreatedBy
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTemplate(ctx, &tpl); err != nil {
		return nil, err
	}
	s.publish("template.updated", "agent_template", tpl.ID, "success", "Template "+tpl.Name+" updated")
	return s.store.GetTemplate(ctx, id)
}

// SetTemplateActive flips the active flag. Deactivation is the template's
// soft delete; inactive templates stay listable but are no longer offered.
func (s *Service) SetTemplateActive(ctx context.Context, id string, active bool) (*models.AgentTemplate, error) {
	tpl, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.IsActive = active
	if err := s.store.UpdateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return s.store.GetTemplate(ctx, id)
}
