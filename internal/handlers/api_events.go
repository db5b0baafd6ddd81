package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/api"
	"github.com/threatsim/threatsim/internal/database"
)

// eventQuery applies the event list filters from query parameters.
func (h *APIHandler) eventQuery(r *http.Request) *gorm.DB {
	q := h.db.Model(&database.SecurityEvent{})
	params := r.URL.Query()

	filter := api.ParseAlertFilter(r)
	if filter.Start != nil {
		q = q.Where("timestamp >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("timestamp < ?", *filter.End)
	}
	if filter.User != "" {
		q = q.Where(`"user" = ?`, filter.User)
	}
	if filter.ScenarioType != "" {
		q = q.Where("scenario_type = ?", filter.ScenarioType)
	}
	if v := params.Get("detection_triggered"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q = q.Where("detection_triggered = ?", b)
		}
	}
	return q
}

// handleGetEvents handles GET /api/v1/events
func (h *APIHandler) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	params := api.ParsePagination(r)

	var total int64
	if err := h.eventQuery(r).Count(&total).Error; err != nil {
		log.Printf("Failed to count events: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get events")
		return
	}

	events := []database.SecurityEvent{}
	err := h.eventQuery(r).
		Order("timestamp DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&events).Error
	if err != nil {
		log.Printf("Failed to list events: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get events")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.NewPaginated(events, total, params))
}

// TimelineEntry is one classified event in the attack timeline view.
type TimelineEntry struct {
	ID             uint   `json:"id"`
	Timestamp      string `json:"timestamp"`
	EventType      string `json:"event_type"`
	Description    string `json:"description"`
	User           string `json:"user"`
	DetectionID    string `json:"detection_id"`
	MitreTactic    string `json:"mitre_tactic"`
	MitreTechnique string `json:"mitre_technique"`
	ScenarioType   string `json:"scenario_type"`
}

// handleGetTimeline handles GET /api/v1/events/timeline.
// Events are returned oldest-first and classified as detection, attack or
// pre_attack so the UI can color the timeline.
func (h *APIHandler) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	q := h.db.Model(&database.SecurityEvent{})
	if v := r.URL.Query().Get("scenario_type"); v != "" {
		q = q.Where("scenario_type = ?", v)
	}
	if v := r.URL.Query().Get("user"); v != "" {
		q = q.Where(`"user" = ?`, v)
	}

	var events []database.SecurityEvent
	if err := q.Order("timestamp ASC").Find(&events).Error; err != nil {
		log.Printf("Failed to load timeline events: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get timeline")
		return
	}

	timeline := make([]TimelineEntry, 0, len(events))
	for _, e := range events {
		eventType := "pre_attack"
		if e.DetectionTriggered {
			eventType = "detection"
		} else if e.ScenarioType != "" && e.ScenarioType != "normal" {
			eventType = "attack"
		}

		scenario := e.ScenarioType
		if scenario == "" {
			scenario = "normal activity"
		}

		timeline = append(timeline, TimelineEntry{
			ID:             e.ID,
			Timestamp:      e.Timestamp.UTC().Format(time.RFC3339),
			EventType:      eventType,
			Description:    fmt.Sprintf("%s - %s", e.User, scenario),
			User:           e.User,
			DetectionID:    e.DetectionID,
			MitreTactic:    e.MitreTactic,
			MitreTechnique: e.MitreTechnique,
			ScenarioType:   e.ScenarioType,
		})
	}

	api.RespondJSON(w, http.StatusOK, timeline)
}
