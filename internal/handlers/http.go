package handlers

import (
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
)

// Version is the API version reported by the root and health endpoints.
const Version = "1.0.0"

// HTTPHandler handles the non-API HTTP endpoints
type HTTPHandler struct{}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{}
}

// SetupRoutes configures the service-level routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /api/v1/health", h.handleHealth)
}

func (h *HTTPHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, map[string]string{
		"name":    "ThreatSim Detection Simulation API",
		"version": Version,
		"status":  "operational",
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
