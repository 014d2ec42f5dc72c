package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	search, sort, page := parseListQuery(r)
	filter := store.TenantFilter{
		Search:      search,
		IsActive:    parseBoolParam(r, "is_active"),
		NicheID:     r.URL.Query().Get("niche_id"),
		NeurocoreID: r.URL.Query().Get("neurocore_id"),
	}
	for _, p := range r.URL.Query()["plan"] {
		filter.Plans = append(filter.Plans, models.TenantPlan(p))
	}

	tenants, total, err := h.Admin.ListTenants(r.Context(), filter, sort, page)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: tenants, Total: total, Page: page.Number, PageSize: page.Size})
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.Admin.GetTenant(r.Context(), chi.URLParam(r, "tenantId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

// GetTenantStats serves the row-count aggregate shown on the tenant detail
// view.
func (h *Handlers) GetTenantStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.GetTenantStats(r.Context(), chi.URLParam(r, "tenantId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var in validation.TenantInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tenant, err := h.Admin.CreateTenant(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tenant)
}

func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var in validation.TenantInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tenant, err := h.Admin.UpdateTenant(r.Context(), chi.URLParam(r, "tenantId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) ActivateTenant(w http.ResponseWriter, r *http.Request) {
	h.setTenantActive(w, r, true)
}

// DeactivateTenant is the tenant's soft delete.
func (h *Handlers) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.setTenantActive(w, r, false)
}

func (h *Handlers) setTenantActive(w http.ResponseWriter, r *http.Request, active bool) {
	tenant, err := h.Admin.SetTenantActive(r.Context(), chi.URLParam(r, "tenantId"), active)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) SetMasterIntegration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tenant, err := h.Admin.SetTenantMasterIntegration(r.Context(), chi.URLParam(r, "tenantId"), body.Active)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) ListTenantChannels(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	if _, err := h.Admin.GetTenant(r.Context(), tenantID); err != nil {
		respondServiceError(w, err)
		return
	}
	channels, err := h.Admin.ListChannelsByTenant(r.Context(), tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	respondJSON(w, http.StatusOK, channels)
}
