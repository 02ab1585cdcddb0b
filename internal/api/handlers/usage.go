package handlers

import (
	"net/http"
)

// GetUsage handles GET /api/v1/usage.
// Returns the aggregate summary since startup plus the recent request
// history (most recent last). Pass ?history=0 to omit the history.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	tracker := h.dispatcher.Tracker()

	result := map[string]interface{}{
		"summary": tracker.GetSummary(),
	}
	if r.URL.Query().Get("history") != "0" {
		result["history"] = tracker.History()
	}
	ok(w, result)
}
