package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (s *Service) ListChannelsByTenant(ctx context.Context, tenantID string) ([]models.Channel, error) {
	return s.store.ListChannelsByTenant(ctx, tenantID)
}

func (s *Service) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	return s.store.GetChannel(ctx, id)
}

// checkChannelNumber enforces number uniqueness within the tenant.
func (s *Service) checkChannelNumber(ctx context.Context, tenantID, number, excludeID string) error {
	taken, err := s.store.ChannelNumberExists(ctx, tenantID, number, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return &store.ErrConflict{Entity: "channel", Field: "identification_number", Value: number}
	}
	return nil
}

func applyChannelInput(ch *models.Channel, in validation.ChannelInput) {
	ch.ProviderID = in.ProviderID
	ch.Name = in.Name
	ch.Number = in.Number
	ch.InstanceName = in.InstanceName
	ch.Observations = in.Observations
	ch.APIURL = in.APIURL
	ch.ProviderChannelID = in.ProviderChannelID
	ch.Config = in.Config
	ch.ClientDescriptions = in.ClientDescriptions
	if in.IsActive != nil {
		ch.IsActive = *in.IsActive
	}
	if in.IsReceiving != nil {
		ch.IsReceiving = *in.IsReceiving
	}
	if in.IsSending != nil {
		ch.IsSending = *in.IsSending
	}
	if in.WaitFragments != nil {
		ch.WaitFragments = *in.WaitFragments
	}
}

// CreateChannel validates the input, checks the tenant and provider exist,
// enforces per-tenant number uniqueness and inserts.
func (s *Service) CreateChannel(ctx context.Context, in validation.ChannelInput) (*models.Channel, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProvider(ctx, in.ProviderID); err != nil {
		return nil, err
	}
	if err := s.checkChannelNumber(ctx, in.TenantID, in.Number, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ch := &models.Channel{
		ID:            uuid.NewString(),
		TenantID:      in.TenantID,
		IsActive:      true,
		IsReceiving:   true,
		IsSending:     true,
		WaitFragments: models.DefaultWaitFragments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyChannelInput(ch, in)

	if err := s.store.CreateChannel(ctx, ch); err != nil {
		return nil, err
	}
	s.publish("channel.created", "channel", ch.ID, "success", "Channel "+ch.Name+" created")
	return s.store.GetChannel(ctx, ch.ID)
}

// UpdateChannel validates and saves. The number uniqueness check excludes
// the channel itself and stays scoped to its tenant.
func (s *Service) UpdateChannel(ctx context.Context, id string, in validation.ChannelInput) (*models.Channel, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	ch, err := s.store.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Number != ch.Number {
		if err := s.checkChannelNumber(ctx, ch.TenantID, in.Number, id); err != nil {
			return nil, err
		}
	}

	applyChannelInput(ch, in)
	if err := s.store.UpdateChannel(ctx, ch); err != nil {
		return nil, err
	}
	s.publish("channel.updated", "channel", ch.ID, "success", "Channel "+ch.Name+" updated")
	return s.store.GetChannel(ctx, id)
}

// DeleteChannel removes a channel permanently.
func (s *Service) DeleteChannel(ctx context.Context, id string) error {
	ch, err := s.store.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteChannel(ctx, id); err != nil {
		return err
	}
	s.publish("channel.deleted", "channel", id, "success", "Channel "+ch.Name+" deleted")
	return nil
}
