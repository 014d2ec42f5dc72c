package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// consoleView dispatches to the named container. The container types differ
// per entity, so each view gets its own closure set.
type consoleView struct {
	snapshot func() any
	refresh  func(r *http.Request)
	search   func(term string)
}

func (h *Handlers) consoleViews() map[string]consoleView {
	return map[string]consoleView{
		"tenants": {
			snapshot: func() any { return h.Console.Tenants.Snapshot() },
			refresh:  func(r *http.Request) { h.Console.Tenants.Refresh(r.Context()) },
			search:   h.Console.Tenants.SetSearch,
		},
		"neurocores": {
			snapshot: func() any { return h.Console.Neurocores.Snapshot() },
			refresh:  func(r *http.Request) { h.Console.Neurocores.Refresh(r.Context()) },
			search:   h.Console.Neurocores.SetSearch,
		},
		"agent-templates": {
			snapshot: func() any { return h.Console.Templates.Snapshot() },
			refresh:  func(r *http.Request) { h.Console.Templates.Refresh(r.Context()) },
			search:   h.Console.Templates.SetSearch,
		},
	}
}

func (h *Handlers) consoleView(w http.ResponseWriter, r *http.Request) (consoleView, bool) {
	view, ok := h.consoleViews()[chi.URLParam(r, "view")]
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown console view")
	}
	return view, ok
}

// GetConsoleView returns the cached page for a dashboard view.
func (h *Handlers) GetConsoleView(w http.ResponseWriter, r *http.Request) {
	view, ok := h.consoleView(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, view.snapshot())
}

// RefreshConsoleView re-fetches a view's current page.
func (h *Handlers) RefreshConsoleView(w http.ResponseWriter, r *http.Request) {
	view, ok := h.consoleView(w, r)
	if !ok {
		return
	}
	view.refresh(r)
	respondJSON(w, http.StatusOK, view.snapshot())
}

// SearchConsoleView records a search term; the view refreshes after the
// input settles (debounced), so the response returns the pre-refresh
// snapshot and clients follow the refresh event.
func (h *Handlers) SearchConsoleView(w http.ResponseWriter, r *http.Request) {
	view, ok := h.consoleView(w, r)
	if !ok {
		return
	}
	var body struct {
		Term string `json:"term"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	view.search(body.Term)
	respondJSON(w, http.StatusAccepted, view.snapshot())
}
