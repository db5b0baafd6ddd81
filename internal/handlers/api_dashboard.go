package handlers

import (
	"log"
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
)

// handleGetKPIs handles GET /api/v1/dashboard/kpis
func (h *APIHandler) handleGetKPIs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.ComputeKPIs(api.ParseAlertFilter(r))
	if err != nil {
		log.Printf("Failed to compute KPIs: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to compute KPIs")
		return
	}
	api.RespondJSON(w, http.StatusOK, summary)
}

// handleGetAlertTrends handles GET /api/v1/dashboard/alert-trends
func (h *APIHandler) handleGetAlertTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.dashboard.ComputeAlertTrends(api.ParseTimeRange(r))
	if err != nil {
		log.Printf("Failed to compute alert trends: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to compute alert trends")
		return
	}
	api.RespondJSON(w, http.StatusOK, trends)
}

// handleGetSignInStats handles GET /api/v1/dashboard/sign-in-stats
func (h *APIHandler) handleGetSignInStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.ComputeAuthStats(api.ParseTimeRange(r))
	if err != nil {
		log.Printf("Failed to compute sign-in stats: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to compute sign-in stats")
		return
	}
	api.RespondJSON(w, http.StatusOK, stats.SignIn)
}

// handleGetMFAStats handles GET /api/v1/dashboard/mfa-stats
func (h *APIHandler) handleGetMFAStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.ComputeAuthStats(api.ParseTimeRange(r))
	if err != nil {
		log.Printf("Failed to compute MFA stats: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to compute MFA stats")
		return
	}
	api.RespondJSON(w, http.StatusOK, stats.MFA)
}
