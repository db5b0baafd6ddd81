package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/threatsim/threatsim/internal/api"
	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/metrics"
	"github.com/threatsim/threatsim/internal/simdata"
)

// SeedRequest overrides parts of the default scenario mix. Omitted fields
// keep their defaults.
type SeedRequest struct {
	MFAFatigue          *int  `json:"mfa_fatigue" validate:"omitempty,gte=0,lte=50"`
	ImpossibleTravel    *int  `json:"impossible_travel" validate:"omitempty,gte=0,lte=50"`
	OAuthAbuse          *int  `json:"oauth_abuse" validate:"omitempty,gte=0,lte=50"`
	PrivilegeEscalation *int  `json:"privilege_escalation" validate:"omitempty,gte=0,lte=50"`
	NormalEvents        *int  `json:"normal_events" validate:"omitempty,gte=0,lte=5000"`
	Reset               *bool `json:"reset"`
}

// SeedResponse reports what a seeding run produced.
type SeedResponse struct {
	Success bool               `json:"success"`
	Result  simdata.SeedResult `json:"result"`
}

// handleSeedSimulation regenerates the synthetic dataset. An empty body
// produces the canonical demo mix; a JSON body tunes scenario counts.
func (h *APIHandler) handleSeedSimulation(w http.ResponseWriter, r *http.Request) {
	spec := simdata.DefaultSeedSpec()
	reset := true

	if r.ContentLength != 0 {
		var req SeedRequest
		if err := api.DecodeJSON(r, &req); err != nil {
			api.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if fieldErrors := api.Validate(req); fieldErrors != nil {
			api.RespondValidationError(w, fieldErrors)
			return
		}
		if req.MFAFatigue != nil {
			spec.MFAFatigue = *req.MFAFatigue
		}
		if req.ImpossibleTravel != nil {
			spec.ImpossibleTravel = *req.ImpossibleTravel
		}
		if req.OAuthAbuse != nil {
			spec.OAuthAbuse = *req.OAuthAbuse
		}
		if req.PrivilegeEscalation != nil {
			spec.PrivilegeEscalation = *req.PrivilegeEscalation
		}
		if req.NormalEvents != nil {
			spec.NormalEvents = *req.NormalEvents
		}
		if req.Reset != nil {
			reset = *req.Reset
		}
	}

	generator := simdata.NewGenerator(h.db)
	if reset {
		if err := generator.Reset(); err != nil {
			log.Printf("Failed to reset simulation data: %v", err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to reset simulation data")
			return
		}
	}

	result, err := generator.Seed(spec)
	if err != nil {
		log.Printf("Failed to seed simulation data: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to seed simulation data")
		return
	}

	h.refreshIncidentGauges()
	if h.hub != nil {
		h.hub.BroadcastSeedCompleted(fmt.Sprintf(
			"Generated %d events, %d alerts, %d incidents", result.Events, result.Alerts, result.Incidents))
	}

	api.RespondJSON(w, http.StatusOK, SeedResponse{Success: true, Result: *result})
}

// refreshIncidentGauges re-counts incidents per status for the metrics
// endpoint.
func (h *APIHandler) refreshIncidentGauges() {
	for _, status := range []database.IncidentStatus{
		database.IncidentStatusOpen,
		database.IncidentStatusInvestigating,
		database.IncidentStatusContained,
		database.IncidentStatusResolved,
	} {
		var count int64
		if err := h.db.Model(&database.Incident{}).Where("status = ?", status).Count(&count).Error; err != nil {
			log.Printf("Failed to count incidents with status %s: %v", status, err)
			return
		}
		metrics.SetIncidentsByStatus(string(status), float64(count))
	}
}
