// Package handlers provides HTTP handler implementations for the kadiya REST API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/thaaaru/kadiya/internal/dispatch"
	"github.com/thaaaru/kadiya/internal/memory"
	"github.com/thaaaru/kadiya/internal/ws"
)

// Handler holds all shared dependencies for API handler methods.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	store      *memory.Store
	hub        *ws.Hub
	version    string
}

// New creates a Handler with all dependencies.
func New(d *dispatch.Dispatcher, store *memory.Store, hub *ws.Hub, version string) *Handler {
	return &Handler{
		dispatcher: d,
		store:      store,
		hub:        hub,
		version:    version,
	}
}

// ── Response helpers ──────────────────────────────────────────────────────────

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]interface{}{
		"status":     "ok",
		"ws_clients": h.hub.ClientCount(),
	})
}

// Version handles GET /api/v1/version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"version": h.version})
}
