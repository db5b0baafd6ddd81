package api

import (
	"net/http"
	"time"

	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/services"
)

// parseTimeParam parses a query parameter as RFC 3339 or a bare YYYY-MM-DD
// date. Malformed values return nil so the filter dimension is simply
// skipped rather than failing the request.
func parseTimeParam(r *http.Request, name string) *time.Time {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

// ParseAlertFilter builds an alert filter from query parameters. Severity is
// resolved case-insensitively to its canonical value; unrecognized values
// pass through as literal strings and match nothing.
func ParseAlertFilter(r *http.Request) services.AlertFilter {
	q := r.URL.Query()
	f := services.AlertFilter{
		Start:        parseTimeParam(r, "start"),
		End:          parseTimeParam(r, "end"),
		User:         q.Get("user"),
		ScenarioType: q.Get("scenario_type"),
	}
	if v := q.Get("severity"); v != "" {
		f.Severity = database.NormalizeSeverity(v)
	}
	return f
}

// ParseTimeRange builds a time range from start/end query parameters.
func ParseTimeRange(r *http.Request) services.TimeRange {
	return services.TimeRange{
		Start: parseTimeParam(r, "start"),
		End:   parseTimeParam(r, "end"),
	}
}
