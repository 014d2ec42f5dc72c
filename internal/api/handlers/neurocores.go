package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
)

func (h *Handlers) ListNeurocores(w http.ResponseWriter, r *http.Request) {
	search, sort, page := parseListQuery(r)
	filter := store.NeurocoreFilter{
		Search:   search,
		IsActive: parseBoolParam(r, "is_active"),
	}
	cores, total, err := h.Admin.ListNeurocores(r.Context(), filter, sort, page)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: cores, Total: total, Page: page.Number, PageSize: page.Size})
}

func (h *Handlers) GetNeurocore(w http.ResponseWriter, r *http.Request) {
	nc, err := h.Admin.GetNeurocore(r.Context(), chi.URLParam(r, "neurocoreId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nc)
}

// DeleteNeurocore refuses with 409 while tenants still use the core.
func (h *Handlers) DeleteNeurocore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "neurocoreId")
	if err := h.Admin.DeleteNeurocore(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "neurocore_id": id})
}

func (h *Handlers) ActivateNeurocore(w http.ResponseWriter, r *http.Request) {
	h.setNeurocoreActive(w, r, true)
}

func (h *Handlers) DeactivateNeurocore(w http.ResponseWriter, r *http.Request) {
	h.setNeurocoreActive(w, r, false)
}

func (h *Handlers) setNeurocoreActive(w http.ResponseWriter, r *http.Request, active bool) {
	nc, err := h.Admin.SetNeurocoreActive(r.Context(), chi.URLParam(r, "neurocoreId"), active)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nc)
}

// ── Edit sessions ───────────────────────────────────────────

// OpenEditSession starts a draft session for a new neurocore.
func (h *Handlers) OpenEditSession(w http.ResponseWriter, r *http.Request) {
	h.openSession(w, r, "")
}

// OpenNeurocoreEditSession starts a draft session seeded from an existing
// neurocore's agents.
func (h *Handlers) OpenNeurocoreEditSession(w http.ResponseWriter, r *http.Request) {
	h.openSession(w, r, chi.URLParam(r, "neurocoreId"))
}

func (h *Handlers) openSession(w http.ResponseWriter, r *http.Request, neurocoreID string) {
	sess, err := h.Admin.OpenEditSession(r.Context(), neurocoreID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	visible, err := h.Admin.DraftAgents(sess.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"session":      sess,
		"draft_agents": visible,
	})
}

func (h *Handlers) CancelEditSession(w http.ResponseWriter, r *http.Request) {
	h.Admin.CloseEditSession(chi.URLParam(r, "sessionId"))
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ListDraftAgents returns the session's visible agent list.
func (h *Handlers) ListDraftAgents(w http.ResponseWriter, r *http.Request) {
	visible, err := h.Admin.DraftAgents(chi.URLParam(r, "sessionId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, visible)
}

func (h *Handlers) AddDraftAgent(w http.ResponseWriter, r *http.Request) {
	var in validation.AgentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.Admin.AddDraftAgent(sessionID, in); err != nil {
		respondServiceError(w, err)
		return
	}
	h.respondDrafts(w, sessionID)
}

func (h *Handlers) EditDraftAgent(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid draft index")
		return
	}
	var in validation.AgentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.Admin.EditDraftAgent(sessionID, index, in); err != nil {
		respondServiceError(w, err)
		return
	}
	h.respondDrafts(w, sessionID)
}

func (h *Handlers) RemoveDraftAgent(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid draft index")
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.Admin.RemoveDraftAgent(sessionID, index); err != nil {
		respondServiceError(w, err)
		return
	}
	h.respondDrafts(w, sessionID)
}

func (h *Handlers) respondDrafts(w http.ResponseWriter, sessionID string) {
	visible, err := h.Admin.DraftAgents(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, visible)
}

// SaveNeurocore persists the neurocore fields and commits the session's
// draft agents. Partial agent failures still return 200; they are listed in
// the response and published as events.
func (h *Handlers) SaveNeurocore(w http.ResponseWriter, r *http.Request) {
	var in validation.NeurocoreInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	nc, res, err := h.Admin.SaveNeurocore(r.Context(), chi.URLParam(r, "sessionId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"neurocore": nc,
		"agents":    res,
	})
}
