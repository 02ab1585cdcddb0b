// Package api sets up the HTTP routes and middleware for the kadiya REST API.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/thaaaru/kadiya/internal/api/handlers"
	"github.com/thaaaru/kadiya/internal/config"
	"github.com/thaaaru/kadiya/internal/dispatch"
	"github.com/thaaaru/kadiya/internal/memory"
	"github.com/thaaaru/kadiya/internal/ws"
)

// Deps holds all dependencies injected into the API handlers.
type Deps struct {
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Store      *memory.Store
	Hub        *ws.Hub
	Version    string
}

// SetupRoutes registers all HTTP routes on the given ServeMux.
// Uses Go 1.22 method+pattern routing syntax.
func SetupRoutes(mux *http.ServeMux, deps *Deps) {
	h := handlers.New(deps.Dispatcher, deps.Store, deps.Hub, deps.Version)

	guard := func(next http.HandlerFunc) http.Handler {
		return requireToken(deps.Config.APIToken, next)
	}

	mux.Handle("GET /api/v1/health", guard(h.Health))
	mux.Handle("GET /api/v1/version", guard(h.Version))

	mux.Handle("POST /api/v1/chat", guard(h.Chat))
	mux.Handle("GET /api/v1/usage", guard(h.GetUsage))

	mux.Handle("GET /api/v1/memory/tasks", guard(h.ListTasks))
	mux.Handle("GET /api/v1/memory/reminders", guard(h.ListReminders))
	mux.Handle("GET /api/v1/memory/notes", guard(h.ListNotes))
	mux.Handle("GET /api/v1/memory/contacts", guard(h.ListContacts))
}

// requireToken enforces the bearer API token when one is configured.
// Comparison is constant-time. An empty configured token disables auth
// (local single-user use).
func requireToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			got := r.Header.Get("Authorization")
			want := "Bearer " + token
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				http.Error(w, `{"success":false,"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
