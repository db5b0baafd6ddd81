package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/api"
	"github.com/threatsim/threatsim/internal/database"
)

// handleGetDetections handles GET /api/v1/detections
func (h *APIHandler) handleGetDetections(w http.ResponseWriter, r *http.Request) {
	detections := []database.Detection{}
	if err := h.db.Order("detection_id ASC").Find(&detections).Error; err != nil {
		log.Printf("Failed to list detections: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get detections")
		return
	}
	api.RespondJSON(w, http.StatusOK, detections)
}

// DetectionExampleEvent is a trimmed event shown on the detection detail page.
type DetectionExampleEvent struct {
	ID           uint   `json:"id"`
	Timestamp    string `json:"timestamp"`
	User         string `json:"user"`
	ScenarioType string `json:"scenario_type"`
}

// DetectionDetail is a detection rule enriched with sample firings and the
// total alert volume it has produced.
type DetectionDetail struct {
	database.Detection
	ExampleEvents []DetectionExampleEvent `json:"example_events"`
	AlertCount    int64                   `json:"alert_count"`
}

// handleGetDetection handles GET /api/v1/detections/{id}
func (h *APIHandler) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	detectionID := r.PathValue("id")

	var detection database.Detection
	err := h.db.Where("detection_id = ?", detectionID).First(&detection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Detection not found")
			return
		}
		log.Printf("Failed to load detection %s: %v", detectionID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get detection")
		return
	}

	var events []database.SecurityEvent
	err = h.db.Where("detection_id = ? AND detection_triggered = ?", detectionID, true).
		Limit(5).
		Find(&events).Error
	if err != nil {
		log.Printf("Failed to load example events for %s: %v", detectionID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get detection")
		return
	}

	var alertCount int64
	if err := h.db.Model(&database.Alert{}).Where("detection_id = ?", detectionID).Count(&alertCount).Error; err != nil {
		log.Printf("Failed to count alerts for %s: %v", detectionID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get detection")
		return
	}

	detail := DetectionDetail{
		Detection:     detection,
		ExampleEvents: make([]DetectionExampleEvent, 0, len(events)),
		AlertCount:    alertCount,
	}
	for _, e := range events {
		detail.ExampleEvents = append(detail.ExampleEvents, DetectionExampleEvent{
			ID:           e.ID,
			Timestamp:    e.Timestamp.UTC().Format(time.RFC3339),
			User:         e.User,
			ScenarioType: e.ScenarioType,
		})
	}

	api.RespondJSON(w, http.StatusOK, detail)
}
