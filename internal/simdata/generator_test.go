package simdata

import (
	"strings"
	"testing"

	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/testhelpers"
)

func TestGenerator_Seed_DefaultSpec(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	g := NewGenerator(db)

	result, err := g.Seed(DefaultSeedSpec())
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	// 3 + 2 + 2 + 2 scenarios, one incident and one alert each.
	if result.Incidents != 9 {
		t.Errorf("incidents = %d, want 9", result.Incidents)
	}
	if result.Alerts != 9 {
		t.Errorf("alerts = %d, want 9", result.Alerts)
	}
	// At minimum the 200 baseline events plus the scenario events.
	if result.Events < 200 {
		t.Errorf("events = %d, want >= 200", result.Events)
	}

	var incidents []database.Incident
	db.Find(&incidents)
	for _, inc := range incidents {
		if inc.Status != database.IncidentStatusOpen {
			t.Errorf("incident %s seeded with status %s, want open", inc.IncidentID, inc.Status)
		}
		if inc.DetectedAt == nil {
			t.Errorf("incident %s missing detected_at", inc.IncidentID)
		}
		if inc.MTTDMinutes == nil {
			t.Errorf("incident %s missing mttd_minutes", inc.IncidentID)
		}
		if inc.MTTRMinutes != nil {
			t.Errorf("incident %s already has mttr_minutes", inc.IncidentID)
		}
		if !strings.HasPrefix(inc.IncidentID, "INC-") {
			t.Errorf("incident id %q lacks INC- prefix", inc.IncidentID)
		}
	}
}

func TestGenerator_Seed_IncidentIDsUnique(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	g := NewGenerator(db)

	if _, err := g.Seed(SeedSpec{MFAFatigue: 2, ImpossibleTravel: 2}); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	// Re-seeding without a reset must not collide on incident_id.
	if _, err := g.Seed(SeedSpec{MFAFatigue: 2}); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	var count int64
	db.Model(&database.Incident{}).Distinct("incident_id").Count(&count)
	if count != 6 {
		t.Errorf("distinct incident ids = %d, want 6", count)
	}
}

func TestGenerator_MFAFatigueShape(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	g := NewGenerator(db)

	if _, err := g.Seed(SeedSpec{MFAFatigue: 1}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var events []database.SecurityEvent
	db.Where("scenario_type = ?", "mfa_fatigue").Order("timestamp ASC").Find(&events)
	if len(events) < 9 {
		t.Fatalf("expected at least 9 events (8 prompts + success), got %d", len(events))
	}

	last := events[len(events)-1]
	if last.SignInResult != database.SignInSuccess || !last.DetectionTriggered {
		t.Errorf("final event must be the detected success: %+v", last)
	}
	if last.DetectionID != "DET-001" {
		t.Errorf("detection id = %q", last.DetectionID)
	}

	for _, e := range events[:len(events)-1] {
		if e.SignInResult != database.SignInFail {
			t.Errorf("prompt event has sign_in_result %q, want fail", e.SignInResult)
		}
		if e.DetectionTriggered {
			t.Error("prompt events must not trigger detection")
		}
	}
}

func TestGenerator_Reset(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	g := NewGenerator(db)

	if _, err := g.Seed(SeedSpec{OAuthAbuse: 1, NormalEvents: 5}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	// Detections are reference data and must survive a reset.
	db.Create(&database.Detection{DetectionID: "DET-001", Name: "MFA Fatigue Attack"})

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	var events, alerts, incidents, detections int64
	db.Model(&database.SecurityEvent{}).Count(&events)
	db.Model(&database.Alert{}).Count(&alerts)
	db.Model(&database.Incident{}).Count(&incidents)
	db.Model(&database.Detection{}).Count(&detections)

	if events != 0 || alerts != 0 || incidents != 0 {
		t.Errorf("reset left events=%d alerts=%d incidents=%d", events, alerts, incidents)
	}
	if detections != 1 {
		t.Errorf("reset must keep the detection catalog, got %d", detections)
	}
}

func TestGenerator_PrivilegeEscalationOutOfHours(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	g := NewGenerator(db)

	if _, err := g.Seed(SeedSpec{PrivilegeEscalation: 1}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var event database.SecurityEvent
	if err := db.Where("role_assigned = ?", true).First(&event).Error; err != nil {
		t.Fatalf("role assignment event missing: %v", err)
	}
	if event.Timestamp.UTC().Hour() != 2 {
		t.Errorf("role assignment at hour %d, want 2 AM", event.Timestamp.UTC().Hour())
	}

	var followup database.SecurityEvent
	if err := db.Where("azure_activity = ?", database.AzureActivityPolicyChange).First(&followup).Error; err != nil {
		t.Fatalf("policy change follow-up missing: %v", err)
	}
}
