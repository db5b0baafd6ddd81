package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/services"
	"github.com/threatsim/threatsim/internal/stream"
)

// APIHandler handles all REST API endpoints
type APIHandler struct {
	db            *gorm.DB
	lifecycle     *services.LifecycleService
	investigation *services.InvestigationService
	dashboard     *services.DashboardService
	hub           *stream.Hub
}

// NewAPIHandler creates a new API handler. The hub may be nil when live
// streaming is disabled.
func NewAPIHandler(db *gorm.DB, hub *stream.Hub) *APIHandler {
	return &APIHandler{
		db:            db,
		lifecycle:     services.NewLifecycleService(db),
		investigation: services.NewInvestigationService(db),
		dashboard:     services.NewDashboardService(db),
		hub:           hub,
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Events
	mux.HandleFunc("GET /api/v1/events", h.handleGetEvents)
	mux.HandleFunc("GET /api/v1/events/timeline", h.handleGetTimeline)

	// Detections
	mux.HandleFunc("GET /api/v1/detections", h.handleGetDetections)
	mux.HandleFunc("GET /api/v1/detections/{id}", h.handleGetDetection)

	// Incidents and response actions
	mux.HandleFunc("GET /api/v1/incidents", h.handleGetIncidents)
	mux.HandleFunc("GET /api/v1/incidents/{id}", h.handleGetIncident)
	mux.HandleFunc("POST /api/v1/incidents/{id}/response/{action}", h.handleExecuteResponseAction)
	mux.HandleFunc("GET /api/v1/incidents/{id}/response-actions", h.handleGetResponseActions)
	mux.HandleFunc("GET /api/v1/response-actions/catalog", h.handleGetActionCatalog)

	// Simulation control
	mux.HandleFunc("POST /api/v1/simulation/seed", h.handleSeedSimulation)

	// Investigation
	mux.HandleFunc("GET /api/v1/users/{user}/investigation", h.handleGetInvestigation)

	// Dashboard
	mux.HandleFunc("GET /api/v1/dashboard/kpis", h.handleGetKPIs)
	mux.HandleFunc("GET /api/v1/dashboard/alert-trends", h.handleGetAlertTrends)
	mux.HandleFunc("GET /api/v1/dashboard/sign-in-stats", h.handleGetSignInStats)
	mux.HandleFunc("GET /api/v1/dashboard/mfa-stats", h.handleGetMFAStats)
}
