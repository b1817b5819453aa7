package handler

import (
	"net/http"

	"github.com/rafidev/contact-admin/internal/service"
)

// StatsHandler serves the dashboard statistics endpoint.
type StatsHandler struct {
	stats service.StatsService
}

// NewStatsHandler creates a StatsHandler with the given service.
func NewStatsHandler(stats service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get handles GET /api/admin/statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Compute(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
