package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
)

// ServiceKeyAuth validates service key authentication for the admin API.
//
// When enabled (SYNAPTIQ_SERVICE_KEYS is set), all requests to /api/v1/*
// must include a valid key via:
//   - Authorization: Bearer <key>
//   - X-Service-Key: <key>
//   - service_key query parameter (for SSE connections)
//
// /health and /version are always public.
//
// Keys are configured via the SYNAPTIQ_SERVICE_KEYS environment variable as
// a comma-separated list: "key1,key2,key3".
type ServiceKeyAuth struct {
	mu      sync.RWMutex
	keys    map[string]bool
	enabled bool
}

// NewServiceKeyAuth creates the auth middleware from environment config.
func NewServiceKeyAuth() *ServiceKeyAuth {
	auth := &ServiceKeyAuth{
		keys: make(map[string]bool),
	}

	keysEnv := os.Getenv("SYNAPTIQ_SERVICE_KEYS")
	if keysEnv == "" {
		// No keys configured — auth disabled
		auth.enabled = false
		return auth
	}

	for _, key := range strings.Split(keysEnv, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			auth.keys[key] = true
			auth.enabled = true
		}
	}

	return auth
}

// Enabled returns whether service key auth is active.
func (a *ServiceKeyAuth) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// AddKey adds a key at runtime.
func (a *ServiceKeyAuth) AddKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key] = true
	a.enabled = true
}

// RemoveKey removes a key at runtime.
func (a *ServiceKeyAuth) RemoveKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.keys, key)
	if len(a.keys) == 0 {
		a.enabled = false
	}
}

// Middleware returns an http.Handler middleware that enforces the key.
func (a *ServiceKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := extractServiceKey(r)
		if key == "" {
			respondUnauthorized(w, "Service key required. Set Authorization: Bearer <key> or X-Service-Key header.")
			return
		}

		// Constant-time comparison
		if !a.validateKey(key) {
			respondUnauthorized(w, "Invalid service key.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *ServiceKeyAuth) validateKey(candidate string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func extractServiceKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("X-Service-Key"); key != "" {
		return key
	}
	// SSE clients cannot set headers
	if key := r.URL.Query().Get("service_key"); key != "" {
		return key
	}
	return ""
}

func isPublicPath(path string) bool {
	switch path {
	case "/health", "/version":
		return true
	}
	return false
}

func respondUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="synaptiq"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": msg,
	})
}
