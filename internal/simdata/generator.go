// Package simdata generates the synthetic attack scenarios and baseline
// telemetry that the dashboard runs on. Every record is fabricated; nothing
// here touches real identity infrastructure.
package simdata

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/metrics"
)

var users = []string{
	"alice.johnson@company.com", "bob.smith@company.com", "charlie.brown@company.com",
	"diana.prince@company.com", "eve.wilson@company.com", "frank.miller@company.com",
	"grace.lee@company.com", "henry.davis@company.com",
}

type geoLocation struct {
	Country string
	City    string
	IP      string
}

var geoLocations = []geoLocation{
	{"United States", "New York", "203.0.113.42"},
	{"United States", "San Francisco", "198.51.100.15"},
	{"United Kingdom", "London", "203.0.113.89"},
	{"Germany", "Berlin", "198.51.100.203"},
	{"Japan", "Tokyo", "203.0.113.100"},
	{"Australia", "Sydney", "198.51.100.250"},
}

var ipAddresses = []string{
	"192.168.1.100", "10.0.0.45", "172.16.0.23", "203.0.113.42",
	"198.51.100.15", "203.0.113.89", "198.51.100.203",
}

var deviceIDs = []string{"DEV-001", "DEV-002", "DEV-003", "DEV-004", "DEV-005"}

var apps = []string{"Microsoft Office 365", "Azure Portal", "SharePoint Online", "Teams", "Outlook"}

var oauthApps = []string{"ThirdPartyAnalytics", "CloudBackupService", "MarketingAutomation", "LegacyIntegration"}

var highRiskScopes = []string{"Mail.Read", "Files.Read.All", "offline_access", "User.ReadWrite.All", "Directory.ReadWrite.All"}

var roles = []string{"Global Administrator", "Security Administrator", "User Administrator", "Billing Administrator", "Exchange Administrator"}

// SeedSpec controls how many instances of each scenario to generate.
type SeedSpec struct {
	MFAFatigue          int
	ImpossibleTravel    int
	OAuthAbuse          int
	PrivilegeEscalation int
	NormalEvents        int
	BaselineDays        int
}

// DefaultSeedSpec mirrors the canonical demo dataset.
func DefaultSeedSpec() SeedSpec {
	return SeedSpec{
		MFAFatigue:          3,
		ImpossibleTravel:    2,
		OAuthAbuse:          2,
		PrivilegeEscalation: 2,
		NormalEvents:        200,
		BaselineDays:        7,
	}
}

// SeedResult summarizes what a seeding run produced.
type SeedResult struct {
	Events    int64 `json:"events"`
	Alerts    int64 `json:"alerts"`
	Incidents int64 `json:"incidents"`
}

// Generator writes synthetic scenarios into the database.
type Generator struct {
	db          *gorm.DB
	rng         *rand.Rand
	now         func() time.Time
	incidentSeq int
}

// NewGenerator creates a generator with a time-seeded random source.
func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Reset deletes all generated events, alerts, incidents and response
// actions. The detection catalog stays.
func (g *Generator) Reset() error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&database.SecurityEvent{},
			&database.Alert{},
			&database.Incident{},
			&database.ResponseAction{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Seed generates the full dataset described by spec.
func (g *Generator) Seed(spec SeedSpec) (*SeedResult, error) {
	if err := g.initIncidentSeq(); err != nil {
		return nil, err
	}

	for i := 0; i < spec.MFAFatigue; i++ {
		if err := g.seedMFAFatigue(); err != nil {
			return nil, fmt.Errorf("seed mfa_fatigue: %w", err)
		}
	}
	for i := 0; i < spec.ImpossibleTravel; i++ {
		if err := g.seedImpossibleTravel(); err != nil {
			return nil, fmt.Errorf("seed impossible_travel: %w", err)
		}
	}
	for i := 0; i < spec.OAuthAbuse; i++ {
		if err := g.seedOAuthAbuse(); err != nil {
			return nil, fmt.Errorf("seed oauth_abuse: %w", err)
		}
	}
	for i := 0; i < spec.PrivilegeEscalation; i++ {
		if err := g.seedPrivilegeEscalation(); err != nil {
			return nil, fmt.Errorf("seed privilege_escalation: %w", err)
		}
	}
	if spec.NormalEvents > 0 {
		days := spec.BaselineDays
		if days <= 0 {
			days = 7
		}
		if err := g.seedNormalBaseline(spec.NormalEvents, days); err != nil {
			return nil, fmt.Errorf("seed normal baseline: %w", err)
		}
	}

	result := &SeedResult{}
	if err := g.db.Model(&database.SecurityEvent{}).Count(&result.Events).Error; err != nil {
		return nil, err
	}
	if err := g.db.Model(&database.Alert{}).Count(&result.Alerts).Error; err != nil {
		return nil, err
	}
	if err := g.db.Model(&database.Incident{}).Count(&result.Incidents).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded simulation data: %d events, %d alerts, %d incidents",
		result.Events, result.Alerts, result.Incidents)
	return result, nil
}

// initIncidentSeq starts incident numbering after the highest existing
// incident so repeated seeding never collides on incident_id.
func (g *Generator) initIncidentSeq() error {
	var count int64
	if err := g.db.Model(&database.Incident{}).Count(&count).Error; err != nil {
		return err
	}
	g.incidentSeq = int(count)
	return nil
}

func (g *Generator) nextIncidentID() string {
	g.incidentSeq++
	return fmt.Sprintf("INC-%04d", g.incidentSeq)
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *Generator) pickGeo() geoLocation {
	return geoLocations[g.rng.Intn(len(geoLocations))]
}

// uniform returns a random float in [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// seedMFAFatigue writes a burst of failed MFA prompts followed by a
// successful sign-in, the firing alert and an open incident.
func (g *Generator) seedMFAFatigue() error {
	user := g.pick(users)
	ip := g.pick(ipAddresses)
	geo := g.pickGeo()
	baseTime := g.now().UTC().Add(-2 * time.Hour)

	return g.db.Transaction(func(tx *gorm.DB) error {
		numPrompts := 8 + g.rng.Intn(8)
		for i := 0; i < numPrompts; i++ {
			mfaResult := database.MFAFail
			if g.rng.Intn(2) == 0 {
				mfaResult = database.MFATimeout
			}
			event := database.SecurityEvent{
				Timestamp:        baseTime.Add(time.Duration(i*2) * time.Minute),
				User:             user,
				IPAddress:        ip,
				GeoCountry:       geo.Country,
				GeoCity:          geo.City,
				DeviceID:         g.pick(deviceIDs),
				DeviceCompliance: "Compliant",
				AppName:          g.pick(apps),
				SignInResult:     database.SignInFail,
				MFARequired:      true,
				MFAResult:        mfaResult,
				RiskLevel:        database.RiskLevelMedium,
				ScenarioType:     "mfa_fatigue",
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		detectedAt := baseTime.Add(time.Duration(numPrompts*2+1) * time.Minute)
		successEvent := database.SecurityEvent{
			Timestamp:          detectedAt,
			User:               user,
			IPAddress:          ip,
			GeoCountry:         geo.Country,
			GeoCity:            geo.City,
			DeviceID:           g.pick(deviceIDs),
			DeviceCompliance:   "Compliant",
			AppName:            g.pick(apps),
			SignInResult:       database.SignInSuccess,
			MFARequired:        true,
			MFAResult:          database.MFAPass,
			RiskLevel:          database.RiskLevelHigh,
			AlertName:          "MFA Fatigue Attack Detected",
			AlertSeverity:      database.SeverityHigh,
			MitreTactic:        "Initial Access",
			MitreTechnique:     "Multi-Factor Authentication Request Generation",
			DetectionID:        "DET-001",
			DetectionTriggered: true,
			ScenarioType:       "mfa_fatigue",
		}
		if err := tx.Create(&successEvent).Error; err != nil {
			return err
		}

		alert := database.Alert{
			AlertName:      "MFA Fatigue Attack Detected",
			Severity:       database.SeverityHigh,
			DetectionID:    "DET-001",
			User:           user,
			IPAddress:      ip,
			Timestamp:      detectedAt,
			ScenarioType:   "mfa_fatigue",
			MitreTactic:    "Initial Access",
			MitreTechnique: "Multi-Factor Authentication Request Generation",
		}
		if err := tx.Create(&alert).Error; err != nil {
			return err
		}

		mttd := g.uniform(5, 15)
		incident := database.Incident{
			IncidentID:   g.nextIncidentID(),
			Title:        fmt.Sprintf("MFA Fatigue Attack - %s", user),
			Description:  fmt.Sprintf("User %s received %d MFA prompts with failures/timeouts, followed by successful authentication", user, numPrompts),
			Severity:     database.SeverityHigh,
			Status:       database.IncidentStatusOpen,
			ScenarioType: "mfa_fatigue",
			User:         user,
			DetectionID:  "DET-001",
			DetectedAt:   &detectedAt,
			MTTDMinutes:  &mttd,
		}
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		metrics.RecordScenarioSeeded("mfa_fatigue")
		return nil
	})
}

// seedImpossibleTravel writes two successful sign-ins from distant
// locations minutes apart.
func (g *Generator) seedImpossibleTravel() error {
	user := g.pick(users)
	baseTime := g.now().UTC().Add(-1 * time.Hour)
	loc1 := geoLocations[0] // New York
	loc2 := geoLocations[4] // Tokyo

	return g.db.Transaction(func(tx *gorm.DB) error {
		event1 := database.SecurityEvent{
			Timestamp:        baseTime,
			User:             user,
			IPAddress:        loc1.IP,
			GeoCountry:       loc1.Country,
			GeoCity:          loc1.City,
			DeviceID:         g.pick(deviceIDs),
			DeviceCompliance: "Compliant",
			AppName:          g.pick(apps),
			SignInResult:     database.SignInSuccess,
			MFARequired:      true,
			MFAResult:        database.MFAPass,
			RiskLevel:        database.RiskLevelLow,
			ScenarioType:     "impossible_travel",
		}
		if err := tx.Create(&event1).Error; err != nil {
			return err
		}

		detectedAt := baseTime.Add(time.Duration(15+g.rng.Intn(16)) * time.Minute)
		event2 := database.SecurityEvent{
			Timestamp:          detectedAt,
			User:               user,
			IPAddress:          loc2.IP,
			GeoCountry:         loc2.Country,
			GeoCity:            loc2.City,
			DeviceID:           g.pick(deviceIDs),
			DeviceCompliance:   "Compliant",
			AppName:            g.pick(apps),
			SignInResult:       database.SignInSuccess,
			MFARequired:        true,
			MFAResult:          database.MFAPass,
			RiskLevel:          database.RiskLevelHigh,
			AlertName:          "Impossible Travel Detected",
			AlertSeverity:      database.SeverityHigh,
			MitreTactic:        "Initial Access",
			MitreTechnique:     "Valid Accounts",
			DetectionID:        "DET-002",
			DetectionTriggered: true,
			ScenarioType:       "impossible_travel",
		}
		if err := tx.Create(&event2).Error; err != nil {
			return err
		}

		alert := database.Alert{
			AlertName:      "Impossible Travel Detected",
			Severity:       database.SeverityHigh,
			DetectionID:    "DET-002",
			User:           user,
			IPAddress:      loc2.IP,
			Timestamp:      detectedAt,
			ScenarioType:   "impossible_travel",
			MitreTactic:    "Initial Access",
			MitreTechnique: "Valid Accounts",
		}
		if err := tx.Create(&alert).Error; err != nil {
			return err
		}

		mttd := g.uniform(10, 25)
		incident := database.Incident{
			IncidentID:   g.nextIncidentID(),
			Title:        fmt.Sprintf("Impossible Travel - %s", user),
			Description:  fmt.Sprintf("User %s authenticated from %s, %s and then %s, %s within 30 minutes", user, loc1.City, loc1.Country, loc2.City, loc2.Country),
			Severity:     database.SeverityHigh,
			Status:       database.IncidentStatusOpen,
			ScenarioType: "impossible_travel",
			User:         user,
			DetectionID:  "DET-002",
			DetectedAt:   &detectedAt,
			MTTDMinutes:  &mttd,
		}
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		metrics.RecordScenarioSeeded("impossible_travel")
		return nil
	})
}

// seedOAuthAbuse writes a single OAuth consent event carrying high-risk
// scopes.
func (g *Generator) seedOAuthAbuse() error {
	user := g.pick(users)
	baseTime := g.now().UTC().Add(-3 * time.Hour)
	geo := g.pickGeo()
	appName := g.pick(oauthApps)
	scopes := strings.Join(g.sampleScopes(3), ", ")

	return g.db.Transaction(func(tx *gorm.DB) error {
		event := database.SecurityEvent{
			Timestamp:          baseTime,
			User:               user,
			IPAddress:          geo.IP,
			GeoCountry:         geo.Country,
			GeoCity:            geo.City,
			DeviceID:           g.pick(deviceIDs),
			OAuthAppName:       appName,
			OAuthScopes:        scopes,
			RiskLevel:          database.RiskLevelMedium,
			AlertName:          "OAuth App Consent with High-Risk Scopes",
			AlertSeverity:      database.SeverityMedium,
			MitreTactic:        "Persistence",
			MitreTechnique:     "Cloud Accounts",
			DetectionID:        "DET-005",
			DetectionTriggered: true,
			ScenarioType:       "oauth_abuse",
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		alert := database.Alert{
			AlertName:      "OAuth App Consent with High-Risk Scopes",
			Severity:       database.SeverityMedium,
			DetectionID:    "DET-005",
			User:           user,
			IPAddress:      geo.IP,
			Timestamp:      baseTime,
			ScenarioType:   "oauth_abuse",
			MitreTactic:    "Persistence",
			MitreTechnique: "Cloud Accounts",
		}
		if err := tx.Create(&alert).Error; err != nil {
			return err
		}

		mttd := g.uniform(15, 45)
		incident := database.Incident{
			IncidentID:   g.nextIncidentID(),
			Title:        fmt.Sprintf("OAuth Consent Abuse - %s", appName),
			Description:  fmt.Sprintf("User %s consented to OAuth app '%s' with high-risk scopes: %s", user, appName, scopes),
			Severity:     database.SeverityMedium,
			Status:       database.IncidentStatusOpen,
			ScenarioType: "oauth_abuse",
			User:         user,
			DetectionID:  "DET-005",
			DetectedAt:   &baseTime,
			MTTDMinutes:  &mttd,
		}
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		metrics.RecordScenarioSeeded("oauth_abuse")
		return nil
	})
}

// seedPrivilegeEscalation writes an out-of-hours role assignment followed
// by a suspicious policy change.
func (g *Generator) seedPrivilegeEscalation() error {
	user := g.pick(users)
	now := g.now().UTC()
	// 2 AM yesterday, well outside business hours
	baseTime := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	geo := g.pickGeo()
	role := g.pick(roles)

	return g.db.Transaction(func(tx *gorm.DB) error {
		event1 := database.SecurityEvent{
			Timestamp:          baseTime,
			User:               user,
			IPAddress:          geo.IP,
			GeoCountry:         geo.Country,
			GeoCity:            geo.City,
			RoleAssigned:       true,
			RoleName:           role,
			RiskLevel:          database.RiskLevelHigh,
			AlertName:          "Privileged Role Assigned Outside Business Hours",
			AlertSeverity:      database.SeverityHigh,
			MitreTactic:        "Privilege Escalation",
			MitreTechnique:     "Cloud Account",
			DetectionID:        "DET-006",
			DetectionTriggered: true,
			ScenarioType:       "privilege_escalation",
		}
		if err := tx.Create(&event1).Error; err != nil {
			return err
		}

		event2 := database.SecurityEvent{
			Timestamp:     baseTime.Add(10 * time.Minute),
			User:          user,
			IPAddress:     geo.IP,
			GeoCountry:    geo.Country,
			GeoCity:       geo.City,
			AzureActivity: database.AzureActivityPolicyChange,
			RiskLevel:     database.RiskLevelHigh,
			ScenarioType:  "privilege_escalation",
		}
		if err := tx.Create(&event2).Error; err != nil {
			return err
		}

		alert := database.Alert{
			AlertName:      "Privileged Role Assigned Outside Business Hours",
			Severity:       database.SeverityHigh,
			DetectionID:    "DET-006",
			User:           user,
			IPAddress:      geo.IP,
			Timestamp:      baseTime,
			ScenarioType:   "privilege_escalation",
			MitreTactic:    "Privilege Escalation",
			MitreTechnique: "Cloud Account",
		}
		if err := tx.Create(&alert).Error; err != nil {
			return err
		}

		mttd := g.uniform(20, 60)
		incident := database.Incident{
			IncidentID:   g.nextIncidentID(),
			Title:        fmt.Sprintf("Privilege Escalation - %s assigned to %s", role, user),
			Description:  fmt.Sprintf("User %s was assigned privileged role '%s' outside business hours, followed by suspicious policy changes", user, role),
			Severity:     database.SeverityHigh,
			Status:       database.IncidentStatusOpen,
			ScenarioType: "privilege_escalation",
			User:         user,
			DetectionID:  "DET-006",
			DetectedAt:   &baseTime,
			MTTDMinutes:  &mttd,
		}
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		metrics.RecordScenarioSeeded("privilege_escalation")
		return nil
	})
}

// seedNormalBaseline spreads benign sign-in activity over the trailing
// days.
func (g *Generator) seedNormalBaseline(count, days int) error {
	baseTime := g.now().UTC().AddDate(0, 0, -days)
	step := time.Duration(float64(days) * 24 / float64(count) * float64(time.Hour))

	return g.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			geo := g.pickGeo()

			signIn := database.SignInSuccess
			if g.rng.Intn(2) == 0 {
				signIn = database.SignInFail
			}
			compliance := "Compliant"
			if g.rng.Intn(2) == 0 {
				compliance = "NonCompliant"
			}
			risk := database.RiskLevelLow
			if g.rng.Intn(2) == 0 {
				risk = database.RiskLevelMedium
			}

			var mfaResult database.MFAResult
			if g.rng.Intn(2) == 0 {
				mfaResult = database.MFAPass
				if g.rng.Intn(2) == 0 {
					mfaResult = database.MFAFail
				}
			}

			event := database.SecurityEvent{
				Timestamp:        baseTime.Add(time.Duration(i) * step),
				User:             g.pick(users),
				IPAddress:        geo.IP,
				GeoCountry:       geo.Country,
				GeoCity:          geo.City,
				DeviceID:         g.pick(deviceIDs),
				DeviceCompliance: compliance,
				AppName:          g.pick(apps),
				SignInResult:     signIn,
				MFARequired:      g.rng.Intn(2) == 0,
				MFAResult:        mfaResult,
				RiskLevel:        risk,
				ScenarioType:     "normal",
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// sampleScopes picks n distinct high-risk scopes.
func (g *Generator) sampleScopes(n int) []string {
	perm := g.rng.Perm(len(highRiskScopes))
	if n > len(perm) {
		n = len(perm)
	}
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, highRiskScopes[idx])
	}
	return out
}
