package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// GetTenantPrompt resolves the effective prompt for a tenant and category:
// the tenant override when present, otherwise the platform default.
func (h *Handlers) GetTenantPrompt(w http.ResponseWriter, r *http.Request) {
	category := models.PromptCategory(chi.URLParam(r, "category"))
	if !models.ValidPromptCategory(category) {
		respondError(w, http.StatusBadRequest, "Unknown prompt category")
		return
	}

	eff, err := h.Admin.ResolvePrompt(r.Context(), category, chi.URLParam(r, "tenantId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eff)
}

// PutTenantPrompt upserts the tenant-scoped prompt row. The platform default
// is never written through this endpoint.
func (h *Handlers) PutTenantPrompt(w http.ResponseWriter, r *http.Request) {
	category := models.PromptCategory(chi.URLParam(r, "category"))
	if !models.ValidPromptCategory(category) {
		respondError(w, http.StatusBadRequest, "Unknown prompt category")
		return
	}

	var content models.PromptContent
	if err := decodeJSON(r, &content); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.Admin.UpsertPrompt(r.Context(), category, chi.URLParam(r, "tenantId"), content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
