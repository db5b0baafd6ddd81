package services

import (
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/threatsim/threatsim/internal/database"
)

// DashboardService computes fleet-level KPIs over alerts, events and
// incidents. All operations are pure reads over a consistent snapshot.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// AlertFilter narrows the alert set for KPI computation. All dimensions are
// optional and combined with AND. Severity and scenario values are expected
// to be pre-normalized by the API boundary (canonical enum value or the
// caller's literal string).
type AlertFilter struct {
	Start        *time.Time
	End          *time.Time
	User         string
	ScenarioType string
	Severity     string
}

func (f AlertFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Start != nil {
		q = q.Where("timestamp >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("timestamp < ?", *f.End)
	}
	if f.User != "" {
		q = q.Where(`"user" = ?`, f.User)
	}
	if f.ScenarioType != "" {
		q = q.Where("scenario_type = ?", f.ScenarioType)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	return q
}

// TimeRange is a half-open [Start, End) window on record timestamps.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// apply adds the range conditions to a query. When no end is given the
// window defaults to the trailing seven days, matching the dashboard's
// default view.
func (r TimeRange) apply(q *gorm.DB, now time.Time) *gorm.DB {
	if r.Start != nil {
		q = q.Where("timestamp >= ?", *r.Start)
	}
	if r.End != nil {
		q = q.Where("timestamp < ?", *r.End)
	} else {
		q = q.Where("timestamp >= ?", now.Add(-7*24*time.Hour))
	}
	return q
}

// TacticCount is one entry in the top-tactics ranking.
type TacticCount struct {
	Tactic string `json:"tactic"`
	Count  int    `json:"count"`
}

// KPISummary is the dashboard's headline numbers.
//
// Note the deliberate asymmetry: alert counts honor the supplied filter,
// while the MTTD/MTTR means always cover the full incident population.
type KPISummary struct {
	TotalAlerts           int64         `json:"total_alerts"`
	HighSeverityAlerts    int64         `json:"high_severity_alerts"`
	DistinctImpactedUsers int64         `json:"distinct_impacted_users"`
	MTTDMinutes           float64       `json:"mttd_minutes"`
	MTTRMinutes           float64       `json:"mttr_minutes"`
	TopTactics            []TacticCount `json:"top_tactics"`
}

// ComputeKPIs calculates the dashboard KPI summary for the given filter.
// Empty result sets yield zero values, never errors.
func (s *DashboardService) ComputeKPIs(filter AlertFilter) (*KPISummary, error) {
	summary := &KPISummary{TopTactics: []TacticCount{}}

	if err := filter.apply(s.db.Model(&database.Alert{})).Count(&summary.TotalAlerts).Error; err != nil {
		return nil, err
	}

	err := filter.apply(s.db.Model(&database.Alert{})).
		Where("severity IN ?", []database.SeverityLevel{database.SeverityHigh, database.SeverityCritical}).
		Count(&summary.HighSeverityAlerts).Error
	if err != nil {
		return nil, err
	}

	err = filter.apply(s.db.Model(&database.Alert{})).
		Where(`"user" IS NOT NULL AND "user" <> ''`).
		Distinct("user").
		Count(&summary.DistinctImpactedUsers).Error
	if err != nil {
		return nil, err
	}

	// MTTD/MTTR are averaged over every incident with a detection timestamp,
	// not the filtered slice above.
	var incidents []database.Incident
	if err := s.db.Where("detected_at IS NOT NULL").Find(&incidents).Error; err != nil {
		return nil, err
	}
	summary.MTTDMinutes = round2(meanOf(incidents, func(i database.Incident) *float64 { return i.MTTDMinutes }))
	summary.MTTRMinutes = round2(meanOf(incidents, func(i database.Incident) *float64 { return i.MTTRMinutes }))

	var tactics []string
	err = filter.apply(s.db.Model(&database.Alert{})).
		Where("mitre_tactic IS NOT NULL AND mitre_tactic <> ''").
		Order("id ASC").
		Pluck("mitre_tactic", &tactics).Error
	if err != nil {
		return nil, err
	}
	summary.TopTactics = topTactics(tactics, 5)

	return summary, nil
}

// DailyCount is one day's alert volume in a trend series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ComputeAlertTrends buckets alert counts by calendar day (UTC) within the
// range, defaulting to the trailing seven days. Days without alerts are
// absent from the result; callers wanting a dense series must zero-fill.
func (s *DashboardService) ComputeAlertTrends(rng TimeRange) ([]DailyCount, error) {
	var timestamps []time.Time
	err := rng.apply(s.db.Model(&database.Alert{}), s.now().UTC()).
		Pluck("timestamp", &timestamps).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int64)
	for _, ts := range timestamps {
		buckets[ts.UTC().Format("2006-01-02")]++
	}

	trends := make([]DailyCount, 0, len(buckets))
	for date, count := range buckets {
		trends = append(trends, DailyCount{Date: date, Count: count})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

// SignInStats tallies sign-in outcomes.
type SignInStats struct {
	Success int64 `json:"success"`
	Fail    int64 `json:"fail"`
}

// MFAStats tallies MFA challenge outcomes.
type MFAStats struct {
	Pass    int64 `json:"pass"`
	Fail    int64 `json:"fail"`
	Timeout int64 `json:"timeout"`
}

// AuthStats bundles the two independent authentication tallies.
type AuthStats struct {
	SignIn SignInStats `json:"sign_in"`
	MFA    MFAStats    `json:"mfa"`
}

// ComputeAuthStats tallies sign-in and MFA outcomes over events in the
// range, defaulting to the trailing seven days.
func (s *DashboardService) ComputeAuthStats(rng TimeRange) (*AuthStats, error) {
	now := s.now().UTC()
	stats := &AuthStats{}

	counts := []struct {
		column string
		value  string
		dest   *int64
	}{
		{"sign_in_result", string(database.SignInSuccess), &stats.SignIn.Success},
		{"sign_in_result", string(database.SignInFail), &stats.SignIn.Fail},
		{"mfa_result", string(database.MFAPass), &stats.MFA.Pass},
		{"mfa_result", string(database.MFAFail), &stats.MFA.Fail},
		{"mfa_result", string(database.MFATimeout), &stats.MFA.Timeout},
	}
	for _, c := range counts {
		q := rng.apply(s.db.Model(&database.SecurityEvent{}), now)
		if err := q.Where(c.column+" = ?", c.value).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// topTactics counts occurrences and returns the top n, ties broken by
// first-encountered order.
func topTactics(tactics []string, n int) []TacticCount {
	counts := make(map[string]int)
	order := []string{}
	for _, t := range tactics {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	ranked := make([]TacticCount, 0, len(order))
	for _, t := range order {
		ranked = append(ranked, TacticCount{Tactic: t, Count: counts[t]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// meanOf averages the non-null values extracted from the incident list,
// reporting zero when no incident carries a value.
func meanOf(incidents []database.Incident, extract func(database.Incident) *float64) float64 {
	var sum float64
	var count int
	for _, inc := range incidents {
		if v := extract(inc); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
