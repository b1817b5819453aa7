package handler

import (
	"net/http"

	"github.com/rafidev/contact-admin/internal/remote"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthHandler reports backend reachability.
type HealthHandler struct {
	remote remote.DataService
}

// NewHealthHandler creates a HealthHandler probing the given data service.
func NewHealthHandler(ds remote.DataService) *HealthHandler {
	return &HealthHandler{remote: ds}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.remote.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unhealthy",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "contact-admin API",
	})
}
