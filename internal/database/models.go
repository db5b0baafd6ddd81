package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// RiskLevel is the risk classification attached to an event.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// SeverityLevel represents normalized severity for detections, alerts and incidents.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// SignInResult represents the outcome of a sign-in attempt.
type SignInResult string

const (
	SignInSuccess SignInResult = "success"
	SignInFail    SignInResult = "fail"
)

// MFAResult represents the outcome of an MFA challenge.
type MFAResult string

const (
	MFAPass    MFAResult = "pass"
	MFAFail    MFAResult = "fail"
	MFATimeout MFAResult = "timeout"
)

// AzureActivityType represents Azure control-plane activity recorded on an event.
type AzureActivityType string

const (
	AzureActivityResourceCreate AzureActivityType = "resource_create"
	AzureActivityResourceDelete AzureActivityType = "resource_delete"
	AzureActivityPolicyChange   AzureActivityType = "policy_change"
)

// IncidentStatus represents the lifecycle status of an incident.
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusContained     IncidentStatus = "contained"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// Next returns the status one step further along the lifecycle.
// RESOLVED is absorbing: advancing it yields RESOLVED again.
func (s IncidentStatus) Next() IncidentStatus {
	switch s {
	case IncidentStatusOpen:
		return IncidentStatusInvestigating
	case IncidentStatusInvestigating:
		return IncidentStatusContained
	case IncidentStatusContained:
		return IncidentStatusResolved
	default:
		return IncidentStatusResolved
	}
}

// IsTerminal reports whether the status is the absorbing RESOLVED state.
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusResolved
}

// NormalizeSeverity resolves a user-supplied severity string to its canonical
// value. Unrecognized strings are returned as-is so filters degrade to a
// literal column comparison instead of rejecting the request.
func NormalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return string(SeverityLow)
	case "medium":
		return string(SeverityMedium)
	case "high":
		return string(SeverityHigh)
	case "critical":
		return string(SeverityCritical)
	default:
		return s
	}
}

// NormalizeIncidentStatus resolves a user-supplied status string to its
// canonical value, falling back to the literal string when unrecognized.
func NormalizeIncidentStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return string(IncidentStatusOpen)
	case "investigating":
		return string(IncidentStatusInvestigating)
	case "contained":
		return string(IncidentStatusContained)
	case "resolved":
		return string(IncidentStatusResolved)
	default:
		return s
	}
}

// ActionLogEntry is one compact record in an incident's JSON action log.
type ActionLogEntry struct {
	ActionType string    `json:"action_type"`
	ActionName string    `json:"action_name"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ActionLog is the ordered, append-only list of response actions taken on an
// incident, stored as a JSON text column.
type ActionLog []ActionLogEntry

// Scan implements the sql.Scanner interface
func (l *ActionLog) Scan(value interface{}) error {
	if value == nil {
		*l = ActionLog{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported source type for ActionLog")
	}
}

// Value implements the driver.Valuer interface
func (l ActionLog) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(ActionLog{})
	}
	return json.Marshal(l)
}

// StringList is a JSON-encoded list of strings stored in a text column.
type StringList []string

// Scan implements the sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported source type for StringList")
	}
}

// Value implements the driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(StringList{})
	}
	return json.Marshal(s)
}

// SecurityEvent is a single immutable synthetic telemetry observation.
// Events are written by the generator and never mutated afterwards.
type SecurityEvent struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Timestamp          time.Time         `gorm:"index" json:"timestamp"`
	User               string            `gorm:"size:100;index" json:"user"`
	IPAddress          string            `gorm:"size:45;index" json:"ip_address"`
	GeoCountry         string            `gorm:"size:100;index" json:"geo_country"`
	GeoCity            string            `gorm:"size:100" json:"geo_city"`
	DeviceID           string            `gorm:"size:100;index" json:"device_id"`
	DeviceCompliance   string            `gorm:"size:50" json:"device_compliance"`
	AppName            string            `gorm:"size:200" json:"app_name"`
	SignInResult       SignInResult      `gorm:"type:varchar(20);index" json:"sign_in_result"`
	MFARequired        bool              `gorm:"default:false" json:"mfa_required"`
	MFAResult          MFAResult         `gorm:"type:varchar(20)" json:"mfa_result"`
	RiskLevel          RiskLevel         `gorm:"type:varchar(20);index" json:"risk_level"`
	OAuthAppName       string            `gorm:"size:200" json:"oauth_app_name"`
	OAuthScopes        string            `gorm:"type:text" json:"oauth_scopes"`
	RoleAssigned       bool              `gorm:"default:false" json:"role_assigned"`
	RoleName           string            `gorm:"size:100" json:"role_name"`
	AzureActivity      AzureActivityType `gorm:"type:varchar(50)" json:"azure_activity"`
	AlertName          string            `gorm:"size:200" json:"alert_name"`
	AlertSeverity      SeverityLevel     `gorm:"type:varchar(20)" json:"alert_severity"`
	MitreTactic        string            `gorm:"size:100" json:"mitre_tactic"`
	MitreTechnique     string            `gorm:"size:100" json:"mitre_technique"`
	DetectionID        string            `gorm:"size:100;index" json:"detection_id"`
	DetectionTriggered bool              `gorm:"default:false;index" json:"detection_triggered"`
	ScenarioType       string            `gorm:"size:100;index" json:"scenario_type"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Detection is a named detection rule. Read-only reference data, seeded from
// the embedded catalog at startup.
type Detection struct {
	ID                     uint          `gorm:"primaryKey" json:"id"`
	DetectionID            string        `gorm:"size:100;uniqueIndex" json:"detection_id"`
	Name                   string        `gorm:"size:200" json:"name"`
	Description            string        `gorm:"type:text" json:"description"`
	RequiredSignals        StringList    `gorm:"type:text" json:"required_signals"`
	DetectionLogic         string        `gorm:"type:text" json:"detection_logic"`
	ExpectedFalsePositives string        `gorm:"type:text" json:"expected_false_positives"`
	Severity               SeverityLevel `gorm:"type:varchar(20);index" json:"severity"`
	RecommendedResponse    string        `gorm:"type:text" json:"recommended_response"`
	MitreTactic            string        `gorm:"size:100" json:"mitre_tactic"`
	MitreTechnique         string        `gorm:"size:100" json:"mitre_technique"`
	MitreTechniqueID       string        `gorm:"size:50" json:"mitre_technique_id"`
	CreatedAt              time.Time     `json:"created_at"`
}

// Alert records a firing of a detection rule against observed activity.
// Status is free-form (new/investigating/resolved by convention) and is not
// synchronized with incident status.
type Alert struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AlertName      string        `gorm:"size:200" json:"alert_name"`
	Severity       SeverityLevel `gorm:"type:varchar(20);index" json:"severity"`
	DetectionID    string        `gorm:"size:100;index" json:"detection_id"`
	User           string        `gorm:"size:100;index" json:"user"`
	IPAddress      string        `gorm:"size:45" json:"ip_address"`
	Timestamp      time.Time     `gorm:"index" json:"timestamp"`
	ScenarioType   string        `gorm:"size:100;index" json:"scenario_type"`
	MitreTactic    string        `gorm:"size:100" json:"mitre_tactic"`
	MitreTechnique string        `gorm:"size:100" json:"mitre_technique"`
	Status         string        `gorm:"size:50;default:'new'" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Incident is the unit of response. Status only moves forward through the
// lifecycle; each lifecycle timestamp is set at most once as the status
// advances, and only the lifecycle service mutates incidents.
type Incident struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	IncidentID     string         `gorm:"size:100;uniqueIndex" json:"incident_id"`
	Title          string         `gorm:"size:200" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Severity       SeverityLevel  `gorm:"type:varchar(20);index" json:"severity"`
	Status         IncidentStatus `gorm:"type:varchar(50);not null;default:'open';index" json:"status"`
	ScenarioType   string         `gorm:"size:100;index" json:"scenario_type"`
	User           string         `gorm:"size:100;index" json:"user"`
	DetectionID    string         `gorm:"size:100" json:"detection_id"`
	AlertID        *uint          `json:"alert_id"`
	DetectedAt     *time.Time     `gorm:"index" json:"detected_at"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at"`
	ContainedAt    *time.Time     `json:"contained_at"`
	ResolvedAt     *time.Time     `json:"resolved_at"`
	MTTDMinutes    *float64       `gorm:"column:mttd_minutes" json:"mttd_minutes"`
	MTTRMinutes    *float64       `gorm:"column:mttr_minutes" json:"mttr_minutes"`
	ResponseLog    ActionLog      `gorm:"type:text;column:response_actions" json:"response_actions"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ResponseAction is an immutable audit record of a simulated response action.
// Always simulated; nothing is ever executed against real infrastructure.
type ResponseAction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	IncidentID  string    `gorm:"size:100;index" json:"incident_id"`
	ActionType  string    `gorm:"size:100" json:"action_type"`
	ActionName  string    `gorm:"size:200" json:"action_name"`
	Description string    `gorm:"type:text" json:"description"`
	Simulated   bool      `gorm:"default:true" json:"simulated"`
	ExecutedAt  time.Time `gorm:"index" json:"executed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides for explicit table naming
func (SecurityEvent) TableName() string {
	return "security_events"
}

func (Detection) TableName() string {
	return "detections"
}

func (Alert) TableName() string {
	return "alerts"
}

func (Incident) TableName() string {
	return "incidents"
}

func (ResponseAction) TableName() string {
	return "response_actions"
}
