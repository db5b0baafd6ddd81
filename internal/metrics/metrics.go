// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatsim",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "handler", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "threatsim",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"method", "handler"},
	)

	responseActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatsim",
			Subsystem: "incident",
			Name:      "response_actions_total",
			Help:      "Total number of simulated response actions executed",
		},
		[]string{"action_type", "result"},
	)

	incidentsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "threatsim",
			Subsystem: "incident",
			Name:      "by_status",
			Help:      "Number of incidents in each lifecycle status",
		},
		[]string{"status"},
	)

	scenariosSeeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatsim",
			Subsystem: "simdata",
			Name:      "scenarios_seeded_total",
			Help:      "Total number of attack scenarios seeded",
		},
		[]string{"scenario_type"},
	)

	streamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "threatsim",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected dashboard WebSocket clients",
		},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordResponseAction records a simulated response action execution.
func RecordResponseAction(actionType, result string) {
	responseActionsTotal.WithLabelValues(actionType, result).Inc()
}

// SetIncidentsByStatus updates the per-status incident gauge.
func SetIncidentsByStatus(status string, count float64) {
	incidentsByStatus.WithLabelValues(status).Set(count)
}

// RecordScenarioSeeded records one seeded scenario.
func RecordScenarioSeeded(scenarioType string) {
	scenariosSeeded.WithLabelValues(scenarioType).Inc()
}

// SetStreamClients updates the connected client gauge.
func SetStreamClients(count int) {
	streamClients.Set(float64(count))
}

// InstrumentHandler wraps an HTTP handler with request metrics collection.
func InstrumentHandler(handlerName string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		handler.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := statusCodeClass(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, handlerName, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, handlerName).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the underlying writer so WebSocket upgrades still work
// through the instrumented handler chain.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// statusCodeClass returns the status code class (2xx, 3xx, 4xx, 5xx)
func statusCodeClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
