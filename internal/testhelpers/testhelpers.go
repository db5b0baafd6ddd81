// Package testhelpers provides reusable testing utilities.
//
// This package contains:
// - HTTP test helpers (recording requests against handlers)
// - In-memory database setup
// - Record builders for events, alerts and incidents
package testhelpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
)

// ========================================
// Database Test Helpers
// ========================================

// SetupTestDB opens an in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.SecurityEvent{},
		&database.Detection{},
		&database.Alert{},
		&database.Incident{},
		&database.ResponseAction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// ========================================
// Record Builders
// ========================================

// NewEvent builds a security event with sensible defaults.
func NewEvent(user string, ts time.Time) database.SecurityEvent {
	return database.SecurityEvent{
		Timestamp:        ts,
		User:             user,
		IPAddress:        "203.0.113.42",
		GeoCountry:       "United States",
		GeoCity:          "New York",
		DeviceID:         "DEV-001",
		DeviceCompliance: "Compliant",
		AppName:          "Microsoft Office 365",
		SignInResult:     database.SignInSuccess,
		RiskLevel:        database.RiskLevelLow,
		ScenarioType:     "normal",
	}
}

// NewAlert builds an alert with sensible defaults.
func NewAlert(user string, ts time.Time, severity database.SeverityLevel) database.Alert {
	return database.Alert{
		AlertName:      "Test Alert",
		Severity:       severity,
		DetectionID:    "DET-001",
		User:           user,
		IPAddress:      "203.0.113.42",
		Timestamp:      ts,
		ScenarioType:   "mfa_fatigue",
		MitreTactic:    "Initial Access",
		MitreTechnique: "Valid Accounts",
	}
}

// NewIncident builds an open incident detected at the given time.
func NewIncident(incidentID, user string, detectedAt time.Time) database.Incident {
	return database.Incident{
		IncidentID:   incidentID,
		Title:        "Test Incident - " + user,
		Severity:     database.SeverityHigh,
		Status:       database.IncidentStatusOpen,
		ScenarioType: "mfa_fatigue",
		User:         user,
		DetectionID:  "DET-001",
		DetectedAt:   &detectedAt,
	}
}

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}
