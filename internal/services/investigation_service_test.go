package services

import (
	"testing"
	"time"

	"github.com/threatsim/threatsim/internal/database"
)

func TestInvestigationService_EmptyUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvestigationService(db)

	inv, err := svc.BuildInvestigation("nobody@company.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.User != "nobody@company.com" {
		t.Errorf("user = %q", inv.User)
	}
	if len(inv.Events) != 0 || len(inv.Alerts) != 0 || len(inv.Incidents) != 0 {
		t.Error("expected empty record sets")
	}
	if inv.UniqueIPs == nil || inv.GeolocationChanges == nil {
		t.Error("collections must be initialized, not nil")
	}
}

func TestInvestigationService_Rollups(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvestigationService(db)

	user := "bob.smith@company.com"
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	events := []database.SecurityEvent{
		{
			Timestamp: base, User: user, IPAddress: "203.0.113.42",
			GeoCountry: "United States", GeoCity: "New York",
			DeviceID: "DEV-001", AppName: "Outlook",
		},
		{
			Timestamp: base.Add(30 * time.Minute), User: user, IPAddress: "203.0.113.100",
			GeoCountry: "Japan", GeoCity: "Tokyo",
			DeviceID: "DEV-002", AppName: "Teams",
			OAuthAppName: "ThirdPartyAnalytics", OAuthScopes: "Mail.Read, offline_access",
		},
		{
			Timestamp: base.Add(time.Hour), User: user, IPAddress: "203.0.113.42",
			GeoCountry: "United States", GeoCity: "New York",
			DeviceID: "DEV-001", AppName: "Outlook",
			RoleAssigned: true, RoleName: "Global Administrator",
		},
		// Different user, must not leak in.
		{
			Timestamp: base, User: "eve.wilson@company.com", IPAddress: "10.0.0.45",
			GeoCountry: "Germany", GeoCity: "Berlin", DeviceID: "DEV-005",
		},
	}
	for i := range events {
		if err := db.Create(&events[i]).Error; err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
	}
	db.Create(&database.Alert{AlertName: "OAuth App Consent with High-Risk Scopes", User: user, Timestamp: base.Add(30 * time.Minute), Severity: database.SeverityMedium})
	detectedAt := base.Add(45 * time.Minute)
	db.Create(&database.Incident{IncidentID: "INC-0001", User: user, Status: database.IncidentStatusOpen, DetectedAt: &detectedAt})

	inv, err := svc.BuildInvestigation(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inv.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(inv.Events))
	}
	// Newest first.
	if !inv.Events[0].Timestamp.After(inv.Events[2].Timestamp) {
		t.Error("events not ordered newest first")
	}
	if len(inv.Alerts) != 1 || len(inv.Incidents) != 1 {
		t.Errorf("alerts=%d incidents=%d", len(inv.Alerts), len(inv.Incidents))
	}

	if len(inv.UniqueIPs) != 2 {
		t.Errorf("unique ips = %v", inv.UniqueIPs)
	}
	if len(inv.UniqueDevices) != 2 {
		t.Errorf("unique devices = %v", inv.UniqueDevices)
	}
	if len(inv.UniqueOAuthApps) != 1 || inv.UniqueOAuthApps[0] != "ThirdPartyAnalytics" {
		t.Errorf("unique oauth apps = %v", inv.UniqueOAuthApps)
	}

	if len(inv.RoleChanges) != 1 || inv.RoleChanges[0].RoleName != "Global Administrator" {
		t.Errorf("role changes = %+v", inv.RoleChanges)
	}
	if len(inv.OAuthConsents) != 1 || inv.OAuthConsents[0].AppName != "ThirdPartyAnalytics" {
		t.Errorf("oauth consents = %+v", inv.OAuthConsents)
	}
}

func TestInvestigationService_GeoTrailDedupe(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvestigationService(db)

	user := "charlie.brown@company.com"
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	// NY, Tokyo, back to NY: the trail keeps the first sighting of each
	// location only, in chronological order.
	locations := []struct {
		country, city, ip string
	}{
		{"United States", "New York", "203.0.113.42"},
		{"Japan", "Tokyo", "203.0.113.100"},
		{"United States", "New York", "203.0.113.42"},
	}
	for i, loc := range locations {
		event := database.SecurityEvent{
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			User:       user,
			IPAddress:  loc.ip,
			GeoCountry: loc.country,
			GeoCity:    loc.city,
		}
		if err := db.Create(&event).Error; err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
	}
	// Event without geo data is skipped entirely.
	db.Create(&database.SecurityEvent{Timestamp: base.Add(4 * time.Hour), User: user, IPAddress: "10.0.0.45"})

	inv, err := svc.BuildInvestigation(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inv.GeolocationChanges) != 2 {
		t.Fatalf("expected 2 geo changes, got %d: %+v", len(inv.GeolocationChanges), inv.GeolocationChanges)
	}
	if inv.GeolocationChanges[0].City != "New York" {
		t.Errorf("first trail entry = %+v, want New York first", inv.GeolocationChanges[0])
	}
	if inv.GeolocationChanges[1].City != "Tokyo" {
		t.Errorf("second trail entry = %+v, want Tokyo", inv.GeolocationChanges[1])
	}
	if !inv.GeolocationChanges[0].Timestamp.Equal(base) {
		t.Errorf("trail must record first sighting, got %v", inv.GeolocationChanges[0].Timestamp)
	}
}
