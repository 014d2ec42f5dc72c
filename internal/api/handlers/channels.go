package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

func (h *Handlers) GetChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Admin.GetChannel(r.Context(), chi.URLParam(r, "channelId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

func (h *Handlers) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var in validation.ChannelInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ch, err := h.Admin.CreateChannel(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ch)
}

func (h *Handlers) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	var in validation.ChannelInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ch, err := h.Admin.UpdateChannel(r.Context(), chi.URLParam(r, "channelId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

func (h *Handlers) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	if err := h.Admin.DeleteChannel(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "channel_id": id})
}

// ListProviders returns the channel provider catalog.
func (h *Handlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.Admin.ListProviders(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if providers == nil {
		providers = []models.ChannelProvider{}
	}
	respondJSON(w, http.StatusOK, providers)
}

// ListNiches returns the market niche catalog.
func (h *Handlers) ListNiches(w http.ResponseWriter, r *http.Request) {
	niches, err := h.Admin.ListNiches(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if niches == nil {
		niches = []models.Niche{}
	}
	respondJSON(w, http.StatusOK, niches)
}
