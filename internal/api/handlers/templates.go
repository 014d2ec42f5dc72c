package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synaptiq/synaptiq/admin-plane/internal/api/middleware"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	search, sort, page := parseListQuery(r)
	filter := store.TemplateFilter{
		Search:   search,
		Function: models.AgentFunction(r.URL.Query().Get("function")),
		IsActive: parseBoolParam(r, "is_active"),
	}
	templates, total, err := h.Admin.ListTemplates(r.Context(), filter, sort, page)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: templates, Total: total, Page: page.Number, PageSize: page.Size})
}

// ListActiveTemplates returns the templates offered in the agent form.
func (h *Handlers) ListActiveTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Admin.ListActiveTemplates(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if templates == nil {
		templates = []models.AgentTemplate{}
	}
	respondJSON(w, http.StatusOK, templates)
}

func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.Admin.GetTemplate(r.Context(), chi.URLParam(r, "templateId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in validation.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var createdBy *string
	if actor := middleware.GetActor(r.Context()); actor != "" {
		createdBy = &actor
	}

	tpl, err := h.Admin.CreateTemplate(r.Context(), in, createdBy)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tpl)
}

func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var in validation.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tpl, err := h.Admin.UpdateTemplate(r.Context(), chi.URLParam(r, "templateId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (h *Handlers) ActivateTemplate(w http.ResponseWriter, r *http.Request) {
	h.setTemplateActive(w, r, true)
}

// DeactivateTemplate is the template's soft delete.
func (h *Handlers) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	h.setTemplateActive(w, r, false)
}

func (h *Handlers) setTemplateActive(w http.ResponseWriter, r *http.Request, active bool) {
	tpl, err := h.Admin.SetTemplateActive(r.Context(), chi.URLParam(r, "templateId"), active)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}
