package admin

import (
	"context"
	"fmt"

	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// EffectivePrompt is a prompt lookup result with its provenance.
type EffectivePrompt struct {
	Category models.PromptCategory `json:"category"`
	// Source is "tenant", "default" or "none".
	Source string         `json:"source"`
	Prompt *models.Prompt `json:"prompt,omitempty"`
}

// ResolvePrompt returns the effective prompt for a tenant in a category:
// the tenant-scoped row when present, otherwise the platform default,
// otherwise nothing.
func (s *Service) ResolvePrompt(ctx context.Context, category models.PromptCategory, tenantID string) (*EffectivePrompt, error) {
	if !models.ValidPromptCategory(category) {
		return nil, fmt.Errorf("unknown prompt category %q", category)
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	p, err := s.store.GetPrompt(ctx, category, tenantID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return &EffectivePrompt{Category: category, Source: "tenant", Prompt: p}, nil
	}

	p, err = s.store.GetDefaultPrompt(ctx, category)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return &EffectivePrompt{Category: category, Source: "default", Prompt: p}, nil
	}
	return &EffectivePrompt{Category: category, Source: "none"}, nil
}

// UpsertPrompt validates the content for the category and writes the
// tenant-scoped row, creating it on first save. The platform default row is
// never touched from here.
func (s *Service) UpsertPrompt(ctx context.Context, category models.PromptCategory, tenantID string, content models.PromptContent) (*models.Prompt, error) {
	if !models.ValidPromptCategory(category) {
		return nil, fmt.Errorf("unknown prompt category %q", category)
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	var err error
	if category == models.PromptGuardRails {
		err = validation.Validate(validation.GuardRailsPromptInput{
			PromptJailbreak: content.PromptJailbreak,
			PromptNSFW:      content.PromptNSFW,
		})
		content.Prompt = ""
	} else {
		err = validation.Validate(validation.SinglePromptInput{Prompt: content.Prompt})
		content.PromptJailbreak = ""
		content.PromptNSFW = ""
	}
	if err != nil {
		return nil, err
	}

	p, err := s.store.UpsertPrompt(ctx, category, tenantID, content)
	if err != nil {
		return nil, err
	}
	s.publish("prompt.updated", "prompt", tenantID, "success",
		"Prompt "+string(category)+" saved for tenant")
	return p, nil
}
