package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
)

// InvestigationService builds unified behavioral profiles for a single user
// from their full historical record. All operations are read-only.
type InvestigationService struct {
	db *gorm.DB
}

// NewInvestigationService creates a new investigation service
func NewInvestigationService(db *gorm.DB) *InvestigationService {
	return &InvestigationService{db: db}
}

// RoleChange is a role-assignment event reduced to the fields analysts need.
type RoleChange struct {
	Timestamp time.Time `json:"timestamp"`
	RoleName  string    `json:"role_name"`
	IPAddress string    `json:"ip_address"`
}

// OAuthConsent is an OAuth consent event reduced for the investigation view.
type OAuthConsent struct {
	Timestamp time.Time `json:"timestamp"`
	AppName   string    `json:"app_name"`
	Scopes    string    `json:"scopes"`
	IPAddress string    `json:"ip_address"`
}

// GeoChange is one entry in the user's location trail: the first time the
// user was seen at a distinct (country, city) pair.
type GeoChange struct {
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address"`
}

// Investigation bundles a user's raw records with the derived rollups.
type Investigation struct {
	User               string                   `json:"user"`
	Events             []database.SecurityEvent `json:"events"`
	Alerts             []database.Alert         `json:"alerts"`
	Incidents          []database.Incident      `json:"incidents"`
	UniqueIPs          []string                 `json:"unique_ips"`
	UniqueDevices      []string                 `json:"unique_devices"`
	UniqueApps         []string                 `json:"unique_apps"`
	UniqueOAuthApps    []string                 `json:"unique_oauth_apps"`
	RoleChanges        []RoleChange             `json:"role_changes"`
	OAuthConsents      []OAuthConsent           `json:"oauth_consents"`
	GeolocationChanges []GeoChange              `json:"geolocation_changes"`
}

// BuildInvestigation assembles the full profile for a user. A user with no
// records yields empty collections, never an error.
func (s *InvestigationService) BuildInvestigation(user string) (*Investigation, error) {
	inv := &Investigation{
		User:               user,
		Events:             []database.SecurityEvent{},
		Alerts:             []database.Alert{},
		Incidents:          []database.Incident{},
		UniqueIPs:          []string{},
		UniqueDevices:      []string{},
		UniqueApps:         []string{},
		UniqueOAuthApps:    []string{},
		RoleChanges:        []RoleChange{},
		OAuthConsents:      []OAuthConsent{},
		GeolocationChanges: []GeoChange{},
	}

	if err := s.db.Where(`"user" = ?`, user).Order("timestamp DESC").Find(&inv.Events).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where(`"user" = ?`, user).Order("timestamp DESC").Find(&inv.Alerts).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where(`"user" = ?`, user).Order("detected_at DESC").Find(&inv.Incidents).Error; err != nil {
		return nil, err
	}

	inv.UniqueIPs = uniqueValues(inv.Events, func(e database.SecurityEvent) string { return e.IPAddress })
	inv.UniqueDevices = uniqueValues(inv.Events, func(e database.SecurityEvent) string { return e.DeviceID })
	inv.UniqueApps = uniqueValues(inv.Events, func(e database.SecurityEvent) string { return e.AppName })
	inv.UniqueOAuthApps = uniqueValues(inv.Events, func(e database.SecurityEvent) string { return e.OAuthAppName })

	for _, e := range inv.Events {
		if e.RoleAssigned {
			inv.RoleChanges = append(inv.RoleChanges, RoleChange{
				Timestamp: e.Timestamp,
				RoleName:  e.RoleName,
				IPAddress: e.IPAddress,
			})
		}
		if e.OAuthAppName != "" {
			inv.OAuthConsents = append(inv.OAuthConsents, OAuthConsent{
				Timestamp: e.Timestamp,
				AppName:   e.OAuthAppName,
				Scopes:    e.OAuthScopes,
				IPAddress: e.IPAddress,
			})
		}
	}

	// Location trail scans events oldest-first (events are fetched newest-
	// first, so walk backwards) and emits one entry per first sighting of a
	// distinct (country, city) pair. A user oscillating between two places
	// still yields two entries; callers needing true consecutive-transition
	// detection must post-process the ordered event list themselves.
	seen := make(map[string]bool)
	for i := len(inv.Events) - 1; i >= 0; i-- {
		e := inv.Events[i]
		if e.GeoCountry == "" || e.GeoCity == "" {
			continue
		}
		key := e.GeoCountry + "-" + e.GeoCity
		if seen[key] {
			continue
		}
		seen[key] = true
		inv.GeolocationChanges = append(inv.GeolocationChanges, GeoChange{
			Country:   e.GeoCountry,
			City:      e.GeoCity,
			Timestamp: e.Timestamp,
			IPAddress: e.IPAddress,
		})
	}

	return inv, nil
}

// uniqueValues deduplicates non-empty values extracted from the event list,
// preserving first-seen order.
func uniqueValues(events []database.SecurityEvent, extract func(database.SecurityEvent) string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for _, e := range events {
		v := extract(e)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
