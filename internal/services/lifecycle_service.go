package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
)

var (
	// ErrIncidentNotFound is returned when an incident_id does not resolve.
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrInvalidActionType is returned for action types outside the fixed catalog.
	ErrInvalidActionType = errors.New("invalid action type")
)

// LifecycleService owns the incident state machine. All incident mutations
// go through here; each invocation advances the status by exactly one step
// and records the simulated action taken.
type LifecycleService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(db *gorm.DB) *LifecycleService {
	return &LifecycleService{db: db, now: time.Now}
}

// ActionResult is the outcome of applying a response action to an incident.
type ActionResult struct {
	IncidentID string                  `json:"incident_id"`
	Status     database.IncidentStatus `json:"incident_status"`
	Action     ResponseActionInfo      `json:"action"`
	ExecutedAt time.Time               `json:"executed_at"`
	Message    string                  `json:"message"`
}

// ApplyResponseAction records a simulated response action against an incident
// and advances its status by one step. The write is a single transaction:
// either the ResponseAction row, the status/timestamp update and the JSON
// action-log append all land, or none do. A RESOLVED incident stays RESOLVED
// but the action is still logged.
func (s *LifecycleService) ApplyResponseAction(incidentID, actionType string) (*ActionResult, error) {
	info, ok := LookupResponseAction(actionType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActionType, actionType)
	}

	now := s.now().UTC()
	var result *ActionResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var incident database.Incident
		if err := tx.Where("incident_id = ?", incidentID).First(&incident).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrIncidentNotFound, incidentID)
			}
			return err
		}

		action := database.ResponseAction{
			IncidentID:  incidentID,
			ActionType:  info.Type,
			ActionName:  info.Name,
			Description: info.Description,
			Simulated:   true,
			ExecutedAt:  now,
		}
		if err := tx.Create(&action).Error; err != nil {
			return err
		}

		switch incident.Status {
		case database.IncidentStatusOpen:
			incident.Status = database.IncidentStatusInvestigating
			if incident.AcknowledgedAt == nil {
				incident.AcknowledgedAt = &now
			}
		case database.IncidentStatusInvestigating:
			incident.Status = database.IncidentStatusContained
			if incident.ContainedAt == nil {
				incident.ContainedAt = &now
			}
		case database.IncidentStatusContained:
			incident.Status = database.IncidentStatusResolved
			if incident.ResolvedAt == nil {
				incident.ResolvedAt = &now
			}
			if incident.DetectedAt != nil {
				mttr := now.Sub(*incident.DetectedAt).Minutes()
				incident.MTTRMinutes = &mttr
			}
		case database.IncidentStatusResolved:
			// Terminal and absorbing: log the action, leave state alone.
		}

		incident.ResponseLog = append(incident.ResponseLog, database.ActionLogEntry{
			ActionType: info.Type,
			ActionName: info.Name,
			ExecutedAt: now,
		})

		if err := tx.Save(&incident).Error; err != nil {
			return err
		}

		result = &ActionResult{
			IncidentID: incidentID,
			Status:     incident.Status,
			Action:     info,
			ExecutedAt: now,
			Message:    "Simulated action executed. " + info.Description,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListActions returns all response actions for an incident, newest first.
// An incident with no recorded actions yields an empty list, not an error.
func (s *LifecycleService) ListActions(incidentID string) ([]database.ResponseAction, error) {
	actions := []database.ResponseAction{}
	err := s.db.Where("incident_id = ?", incidentID).
		Order("executed_at DESC, id DESC").
		Find(&actions).Error
	return actions, err
}

// GetIncident returns an incident by its incident_id.
func (s *LifecycleService) GetIncident(incidentID string) (*database.Incident, error) {
	var incident database.Incident
	if err := s.db.Where("incident_id = ?", incidentID).First(&incident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIncidentNotFound, incidentID)
		}
		return nil, err
	}
	return &incident, nil
}
