// Package handlers implements the HTTP handlers for the Synaptiq admin
// plane. Handlers decode and parse, delegate to the admin service, and map
// domain errors onto status codes; the rules live in internal/admin.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/synaptiq/synaptiq/admin-plane/internal/admin"
	"github.com/synaptiq/synaptiq/admin-plane/internal/drafts"
	"github.com/synaptiq/synaptiq/admin-plane/internal/notify"
	"github.com/synaptiq/synaptiq/admin-plane/internal/state"
	"github.com/synaptiq/synaptiq/admin-plane/internal/store"
	"github.com/synaptiq/synaptiq/admin-plane/internal/validation"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store   store.Store
	Admin   *admin.Service
	Hub     *notify.Hub
	Console *state.Console
}

// New creates a Handlers instance.
func New(st store.Store, svc *admin.Service, hub *notify.Hub, console *state.Console) *Handlers {
	return &Handlers{
		Store:   st,
		Admin:   svc,
		Hub:     hub,
		Console: console,
	}
}

// listResponse is the envelope for paginated list endpoints.
type listResponse struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// parseListQuery reads the common list parameters: search, sort_by,
// order=asc|desc, page, page_size.
func parseListQuery(r *http.Request) (string, store.Sort, store.Page) {
	q := r.URL.Query()

	sort := store.DefaultSort
	if field := q.Get("sort_by"); field != "" {
		sort = store.Sort{Field: field, Desc: q.Get("order") != "asc"}
	}

	page := store.Page{}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		page.Size = n
	}

	return q.Get("search"), sort, page.Normalize()
}

// parseBoolParam reads an optional true/false query parameter.
func parseBoolParam(r *http.Request, name string) *bool {
	switch r.URL.Query().Get(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto status codes: field-level
// validation failures are 422 with a per-field map, missing entities 404,
// uniqueness and reference conflicts 409, everything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var fe validation.FieldErrors
	switch {
	case errors.As(err, &fe):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"fields": fe,
		})
	case errors.Is(err, drafts.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case store.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case store.IsConflict(err), store.IsInUse(err):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
