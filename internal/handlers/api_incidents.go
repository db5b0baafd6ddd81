package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/services"
)

// handleGetIncidents handles GET /api/v1/incidents
func (h *APIHandler) handleGetIncidents(w http.ResponseWriter, r *http.Request) {
	q := h.db.Model(&database.Incident{})
	params := r.URL.Query()

	if v := params.Get("status"); v != "" {
		q = q.Where("status = ?", database.NormalizeIncidentStatus(v))
	}
	if v := params.Get("severity"); v != "" {
		q = q.Where("severity = ?", database.NormalizeSeverity(v))
	}
	if v := params.Get("scenario_type"); v != "" {
		q = q.Where("scenario_type = ?", v)
	}

	incidents := []database.Incident{}
	if err := q.Order("detected_at DESC").Find(&incidents).Error; err != nil {
		log.Printf("Failed to list incidents: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get incidents")
		return
	}
	api.RespondJSON(w, http.StatusOK, incidents)
}

// handleGetIncident handles GET /api/v1/incidents/{id}
func (h *APIHandler) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.lifecycle.GetIncident(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			api.RespondError(w, http.StatusNotFound, "Incident not found")
			return
		}
		log.Printf("Failed to load incident: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get incident")
		return
	}
	api.RespondJSON(w, http.StatusOK, incident)
}
