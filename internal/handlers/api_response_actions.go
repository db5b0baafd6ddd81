package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
	"github.com/threatsim/threatsim/internal/metrics"
	"github.com/threatsim/threatsim/internal/services"
)

// ResponseActionResponse is the envelope returned after executing an action.
type ResponseActionResponse struct {
	Success        bool                        `json:"success"`
	Action         services.ResponseActionInfo `json:"action"`
	IncidentStatus string                      `json:"incident_status"`
	Message        string                      `json:"message"`
}

// handleExecuteResponseAction handles POST /api/v1/incidents/{id}/response/{action}
func (h *APIHandler) handleExecuteResponseAction(w http.ResponseWriter, r *http.Request) {
	incidentID := r.PathValue("id")
	actionType := r.PathValue("action")

	result, err := h.lifecycle.ApplyResponseAction(incidentID, actionType)
	if err != nil {
		metrics.RecordResponseAction(actionType, "error")
		switch {
		case errors.Is(err, services.ErrInvalidActionType):
			api.RespondError(w, http.StatusBadRequest, "Invalid action type")
		case errors.Is(err, services.ErrIncidentNotFound):
			api.RespondError(w, http.StatusNotFound, "Incident not found")
		default:
			log.Printf("Failed to execute response action %s on %s: %v", actionType, incidentID, err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to execute response action")
		}
		return
	}

	metrics.RecordResponseAction(actionType, "success")
	h.refreshIncidentGauges()

	if h.hub != nil {
		h.hub.BroadcastIncidentUpdate(result.IncidentID, string(result.Status), result.Action.Type)
	}

	api.RespondJSON(w, http.StatusOK, ResponseActionResponse{
		Success:        true,
		Action:         result.Action,
		IncidentStatus: string(result.Status),
		Message:        result.Message,
	})
}

// handleGetResponseActions handles GET /api/v1/incidents/{id}/response-actions
func (h *APIHandler) handleGetResponseActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.lifecycle.ListActions(r.PathValue("id"))
	if err != nil {
		log.Printf("Failed to list response actions: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get response actions")
		return
	}
	api.RespondJSON(w, http.StatusOK, actions)
}

// handleGetActionCatalog handles GET /api/v1/response-actions/catalog
func (h *APIHandler) handleGetActionCatalog(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, services.ResponseActionCatalog())
}
