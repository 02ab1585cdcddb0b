package handlers

import (
	"net/http"
)

// ListTasks handles GET /api/v1/memory/tasks.
// Query params: status=pending|completed (default pending).
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}
	tasks, err := h.store.ListTasks(r.Context(), status)
	if err != nil {
		fail(w, http.StatusInternalServerError, "list tasks: "+err.Error())
		return
	}
	ok(w, tasks)
}

// ListReminders handles GET /api/v1/memory/reminders.
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.store.PendingReminders(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, "list reminders: "+err.Error())
		return
	}
	ok(w, reminders)
}

// ListNotes handles GET /api/v1/memory/notes.
// Query params: q=<search text> (empty returns all notes).
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.SearchNotes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, http.StatusInternalServerError, "list notes: "+err.Error())
		return
	}
	ok(w, notes)
}

// ListContacts handles GET /api/v1/memory/contacts.
// Query params: q=<search text> (empty returns all contacts).
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.FindContacts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, http.StatusInternalServerError, "list contacts: "+err.Error())
		return
	}
	ok(w, contacts)
}
