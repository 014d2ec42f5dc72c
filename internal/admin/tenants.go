package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// ListTenants returns a page of tenants plus the total count for the filter.
func (s *Service) ListTenants(ctx context.Context, filter store.TenantFilter, sort store.Sort, page store.Page) ([]models.Tenant, int, error) {
	return s.store.ListTenants(ctx, filter, sort, page)
}

func (s *Service) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// GetTenantStats aggregates the tenant's platform row counts for the
// detail view.
func (s *Service) GetTenantStats(ctx context.Context, id string) (*models.TenantStats, error) {
	return s.store.TenantStats(ctx, id)
}

// CreateTenant validates the input, checks CNPJ uniqueness and inserts.
func (s *Service) CreateTenant(ctx context.Context, in validation.TenantInput) (*models.Tenant, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	cnpj := validation.UnformatCNPJ(in.CNPJ)

	taken, err := s.store.TenantCNPJExists(ctx, cnpj, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &store.ErrConflict{Entity: "tenant", Field: "cnpj", Value: in.CNPJ}
	}

	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:              uuid.NewString(),
		Name:            in.Name,
		CNPJ:            cnpj,
		Phone:           in.Phone,
		Plan:            in.Plan,
		NeurocoreID:     in.NeurocoreID,
		NicheID:         in.NicheID,
		TechName:        in.TechName,
		TechWhatsApp:    in.TechWhatsApp,
		TechEmail:       in.TechEmail,
		FinanceName:     in.FinanceName,
		FinanceWhatsApp: in.FinanceWhatsApp,
		FinanceEmail:    in.FinanceEmail,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.IsActive != nil {
		tenant.IsActive = *in.IsActive
	}
	if in.MasterIntegrationActive != nil {
		tenant.MasterIntegrationActive = *in.MasterIntegrationActive
	}

	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	log.Info().Str("tenant_id", tenant.ID).Str("name", tenant.Name).Msg("Tenant created")
	s.publish("tenant.created", "tenant", tenant.ID, "success", "Tenant "+tenant.Name+" created")
	return s.store.GetTenant(ctx, tenant.ID)
}

// UpdateTenant validates the input, re-checks CNPJ uniqueness against other
// tenants and saves.
func (s *Service) UpdateTenant(ctx context.Context, id string, in validation.TenantInput) (*models.Tenant, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	cnpj := validation.UnformatCNPJ(in.CNPJ)
	if cnpj != tenant.CNPJ {
		taken, err := s.store.TenantCNPJExists(ctx, cnpj, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &store.ErrConflict{Entity: "tenant", Field: "cnpj", Value: in.CNPJ}
		}
	}

	tenant.Name = in.Name
	tenant.CNPJ = cnpj
	tenant.Phone = in.Phone
	tenant.Plan = in.Plan
	tenant.NeurocoreID = in.NeurocoreID
	tenant.NicheID = in.NicheID
	tenant.TechName = in.TechName
	tenant.TechWhatsApp = in.TechWhatsApp
	tenant.TechEmail = in.TechEmail
	tenant.FinanceName = in.FinanceName
	tenant.FinanceWhatsApp = in.FinanceWhatsApp
	tenant.FinanceEmail = in.FinanceEmail
	if in.IsActive != nil {
		tenant.IsActive = *in.IsActive
	}
	if in.MasterIntegrationActive != nil {
		tenant.MasterIntegrationActive = *in.MasterIntegrationActive
	}

	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.publish("tenant.updated", "tenant", tenant.ID, "success", "Tenant "+tenant.Name+" updated")
	return s.store.GetTenant(ctx, id)
}

// SetTenantActive flips the active flag. Deactivation is the tenant's soft
// delete; rows are never physically removed.
func (s *Service) SetTenantActive(ctx context.Context, id string, active bool) (*models.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.IsActive = active
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	verb := "deactivated"
	if active {
		verb = "activated"
	}
	s.publish("tenant."+verb, "tenant", id, "info", "Tenant "+tenant.Name+" "+verb)
	return s.store.GetTenant(ctx, id)
}

// SetTenantMasterIntegration toggles master integration for the tenant.
func (s *Service) SetTenantMasterIntegration(ctx context.Context, id string, active bool) (*models.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.MasterIntegrationActive = active
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	return s.store.GetTenant(ctx, id)
}
