package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// ActorKey is the context key for the admin user performing the request.
const ActorKey contextKey = "actor"

// ActorExtractor records which admin user issued the request, taken from the
// X-Actor-Id header set by the dashboard after login. Used for attribution
// (e.g. created_by on agent templates); absence is fine, the request is then
// anonymous.
func ActorExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get("X-Actor-Id"))
		if actor == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActor retrieves the acting admin user id, or "" when anonymous.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey).(string); ok {
		return v
	}
	return ""
}
