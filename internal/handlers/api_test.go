package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/testhelpers"
)

func newTestMux(t *testing.T) (*http.ServeMux, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	mux := http.NewServeMux()
	NewHTTPHandler().SetupRoutes(mux)
	NewAPIHandler(db, nil).SetupRoutes(mux)
	return mux, db
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	detections, err := database.LoadDetectionCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	for i := range detections {
		if err := db.Create(&detections[i]).Error; err != nil {
			t.Fatalf("failed to seed detection: %v", err)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/health", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains("healthy")
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	testhelpers.NewHTTPTestContext(t, "GET", "/", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains("operational")
}

func TestGetIncidents_StatusFilterNormalization(t *testing.T) {
	mux, db := newTestMux(t)

	detectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	db.Create(&database.Incident{IncidentID: "INC-0001", Status: database.IncidentStatusOpen, Severity: database.SeverityHigh, DetectedAt: &detectedAt})
	db.Create(&database.Incident{IncidentID: "INC-0002", Status: database.IncidentStatusResolved, Severity: database.SeverityLow, DetectedAt: &detectedAt})

	var incidents []database.Incident
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/incidents?status=OPEN", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&incidents)

	if len(incidents) != 1 || incidents[0].IncidentID != "INC-0001" {
		t.Errorf("expected only INC-0001, got %+v", incidents)
	}

	// Unrecognized status matches nothing instead of erroring.
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/incidents?status=bogus", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains("[]")
}

func TestGetIncident_NotFound(t *testing.T) {
	mux, _ := newTestMux(t)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/incidents/INC-9999", nil).
		Execute(mux).
		AssertStatus(http.StatusNotFound).
		AssertBodyContains("Incident not found")
}

func TestExecuteResponseAction_AdvancesLifecycle(t *testing.T) {
	mux, db := newTestMux(t)

	detectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	incident := testhelpers.NewIncident("INC-0001", "alice.johnson@company.com", detectedAt)
	db.Create(&incident)

	var resp ResponseActionResponse
	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/incidents/INC-0001/response/disable_user", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.IncidentStatus != "investigating" {
		t.Errorf("status = %q, want investigating", resp.IncidentStatus)
	}
	if resp.Action.Name != "Disable User Account" {
		t.Errorf("action name = %q", resp.Action.Name)
	}

	var stored database.Incident
	db.Where("incident_id = ?", "INC-0001").First(&stored)
	if stored.Status != database.IncidentStatusInvestigating {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestExecuteResponseAction_Errors(t *testing.T) {
	mux, db := newTestMux(t)

	detectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	incident := testhelpers.NewIncident("INC-0001", "alice.johnson@company.com", detectedAt)
	db.Create(&incident)

	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/incidents/INC-9999/response/disable_user", nil).
		Execute(mux).
		AssertStatus(http.StatusNotFound)

	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/incidents/INC-0001/response/launch_missiles", nil).
		Execute(mux).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("Invalid action type")
}

func TestGetResponseActions(t *testing.T) {
	mux, db := newTestMux(t)

	detectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	incident := testhelpers.NewIncident("INC-0001", "alice.johnson@company.com", detectedAt)
	db.Create(&incident)

	for _, action := range []string{"disable_user", "revoke_sessions"} {
		testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/incidents/INC-0001/response/"+action, nil).
			Execute(mux).
			AssertStatus(http.StatusOK)
	}

	var actions []database.ResponseAction
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/incidents/INC-0001/response-actions", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&actions)

	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	for _, a := range actions {
		if !a.Simulated {
			t.Error("all actions must be marked simulated")
		}
	}
}

func TestGetActionCatalog(t *testing.T) {
	mux, _ := newTestMux(t)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/response-actions/catalog", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains("disable_user").
		AssertBodyContains("Block OAuth Application")
}

func TestGetDetections(t *testing.T) {
	mux, db := newTestMux(t)
	seedCatalog(t, db)

	var detections []database.Detection
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/detections", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&detections)

	if len(detections) != 8 {
		t.Fatalf("expected 8 detections, got %d", len(detections))
	}
	if detections[0].DetectionID != "DET-001" {
		t.Errorf("expected DET-001 first, got %s", detections[0].DetectionID)
	}
}

func TestGetDetection_Detail(t *testing.T) {
	mux, db := newTestMux(t)
	seedCatalog(t, db)

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		event := testhelpers.NewEvent("alice.johnson@company.com", ts.Add(time.Duration(i)*time.Minute))
		event.DetectionID = "DET-001"
		event.DetectionTriggered = true
		db.Create(&event)
	}
	db.Create(&database.Alert{AlertName: "MFA Fatigue Attack Detected", DetectionID: "DET-001", Timestamp: ts})

	var detail DetectionDetail
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/detections/DET-001", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&detail)

	if detail.Name != "MFA Fatigue Attack" {
		t.Errorf("name = %q", detail.Name)
	}
	if len(detail.ExampleEvents) != 5 {
		t.Errorf("example events = %d, want capped at 5", len(detail.ExampleEvents))
	}
	if detail.AlertCount != 1 {
		t.Errorf("alert count = %d", detail.AlertCount)
	}

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/detections/DET-404", nil).
		Execute(mux).
		AssertStatus(http.StatusNotFound)
}

func TestGetEvents_Pagination(t *testing.T) {
	mux, db := newTestMux(t)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		event := testhelpers.NewEvent("alice.johnson@company.com", base.Add(time.Duration(i)*time.Hour))
		db.Create(&event)
	}

	var page struct {
		Items      []database.SecurityEvent `json:"items"`
		Total      int64                    `json:"total"`
		Page       int                      `json:"page"`
		PerPage    int                      `json:"per_page"`
		TotalPages int                      `json:"total_pages"`
	}
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/events?per_page=3&page=2", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&page)

	if page.Total != 7 || page.TotalPages != 3 {
		t.Errorf("envelope = total %d pages %d", page.Total, page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	// Newest first: page 2 of per_page 3 starts at the 4th newest.
	if !page.Items[0].Timestamp.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("unexpected page start: %v", page.Items[0].Timestamp)
	}
}

// The user column must be quoted in raw fragments: postgres parses a bare
// "user" as the session-user keyword and the filter would silently match
// nothing.
func TestEventQuery_QuotesUserColumn(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	h := NewAPIHandler(db, nil)

	req := httptest.NewRequest("GET", "/api/v1/events?user=alice.johnson@company.com", nil)
	stmt := h.eventQuery(req).
		Session(&gorm.Session{DryRun: true}).
		Find(&[]database.SecurityEvent{}).
		Statement

	if !strings.Contains(stmt.SQL.String(), `"user" = `) {
		t.Errorf("user filter not quoted: %s", stmt.SQL.String())
	}
}

func TestGetTimeline_Classification(t *testing.T) {
	mux, db := newTestMux(t)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	normal := testhelpers.NewEvent("alice.johnson@company.com", base)
	db.Create(&normal)

	attack := testhelpers.NewEvent("alice.johnson@company.com", base.Add(time.Hour))
	attack.ScenarioType = "mfa_fatigue"
	db.Create(&attack)

	detection := testhelpers.NewEvent("alice.johnson@company.com", base.Add(2*time.Hour))
	detection.ScenarioType = "mfa_fatigue"
	detection.DetectionTriggered = true
	detection.DetectionID = "DET-001"
	db.Create(&detection)

	var timeline []TimelineEntry
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/events/timeline?user=alice.johnson@company.com", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&timeline)

	if len(timeline) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(timeline))
	}
	// Oldest first, classified pre_attack -> attack -> detection.
	wantTypes := []string{"pre_attack", "attack", "detection"}
	for i, want := range wantTypes {
		if timeline[i].EventType != want {
			t.Errorf("entry %d type = %q, want %q", i, timeline[i].EventType, want)
		}
	}
}

func TestGetInvestigation(t *testing.T) {
	mux, db := newTestMux(t)

	ts := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	event := testhelpers.NewEvent("diana.prince@company.com", ts)
	event.RoleAssigned = true
	event.RoleName = "Global Administrator"
	db.Create(&event)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/users/diana.prince@company.com/investigation", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Global Administrator").
		AssertBodyContains("geolocation_changes")
}

func TestSeedSimulation_CustomSpec(t *testing.T) {
	mux, db := newTestMux(t)

	body := `{"mfa_fatigue":1,"impossible_travel":0,"oauth_abuse":0,"privilege_escalation":0,"normal_events":0}`

	var resp SeedResponse
	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/simulation/seed", strings.NewReader(body)).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Result.Incidents != 1 {
		t.Errorf("incidents = %d, want 1", resp.Result.Incidents)
	}

	// Reseeding replaces the dataset instead of accumulating.
	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/simulation/seed", strings.NewReader(body)).
		Execute(mux).
		AssertStatus(http.StatusOK)

	var count int64
	db.Model(&database.Incident{}).Count(&count)
	if count != 1 {
		t.Errorf("incident count after reseed = %d, want 1", count)
	}
}

func TestSeedSimulation_Validation(t *testing.T) {
	mux, _ := newTestMux(t)

	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/simulation/seed", strings.NewReader(`{"mfa_fatigue":-1}`)).
		Execute(mux).
		AssertStatus(http.StatusUnprocessableEntity).
		AssertBodyContains("mfa_fatigue")

	testhelpers.NewHTTPTestContext(t, "POST", "/api/v1/simulation/seed", strings.NewReader(`{"bogus":true}`)).
		Execute(mux).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("unknown field")
}

func TestGetDashboardKPIs(t *testing.T) {
	mux, db := newTestMux(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db.Create(&database.Alert{AlertName: "a", Severity: database.SeverityHigh, User: "alice@company.com", Timestamp: ts, MitreTactic: "Initial Access"})

	var summary struct {
		TotalAlerts        int64 `json:"total_alerts"`
		HighSeverityAlerts int64 `json:"high_severity_alerts"`
	}
	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/dashboard/kpis", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&summary)

	if summary.TotalAlerts != 1 || summary.HighSeverityAlerts != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestGetDashboardStats(t *testing.T) {
	mux, db := newTestMux(t)

	ts := time.Now().UTC().Add(-time.Hour)
	event := testhelpers.NewEvent("alice.johnson@company.com", ts)
	event.SignInResult = database.SignInFail
	event.MFAResult = database.MFATimeout
	db.Create(&event)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/dashboard/sign-in-stats", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"fail":1`)

	testhelpers.NewHTTPTestContext(t, "GET", "/api/v1/dashboard/mfa-stats", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"timeout":1`)
}
