// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spac_dashboard/pkg/core/redemption"
)

// Evaluation modes.
const (
	ModeRates = "rates"
	ModeGrid  = "grid"
	ModeChart = "chart"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	ScenarioEvaluations *prometheus.CounterVec
	ScenariosDegenerate prometheus.Counter
	ValidationErrors    *prometheus.CounterVec
	EvaluationDuration  *prometheus.HistogramVec

	// Store metrics
	DealsStored prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "spac_dashboard"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ScenarioEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scenario_evaluations_total",
			Help:      "Total number of redemption scenarios evaluated by mode",
		}, []string{"mode"}),
		ScenariosDegenerate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scenarios_degenerate_total",
			Help:      "Total number of scenarios with no pro-forma shares or no cash",
		}),
		ValidationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "validation_errors_total",
			Help:      "Total number of rejected inputs by kind",
		}, []string{"kind"}),
		EvaluationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_duration_seconds",
			Help:      "Batch evaluation latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"mode"}),

		DealsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "deals_stored_total",
			Help:      "Total number of deals created or updated",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "status"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordEvaluation records a finished batch.
func (m *Metrics) RecordEvaluation(mode string, scenarios []redemption.RedemptionScenario, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ScenarioEvaluations.WithLabelValues(mode).Add(float64(len(scenarios)))
	for _, s := range scenarios {
		if s.IsDegenerate() {
			m.ScenariosDegenerate.Inc()
		}
	}
	m.EvaluationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RecordValidationError counts err when it is an engine validation error.
func (m *Metrics) RecordValidationError(err error) {
	if m == nil {
		return
	}
	switch {
	case errors.Is(err, redemption.ErrInvalidRange):
		m.ValidationErrors.WithLabelValues("invalid_range").Inc()
	case errors.Is(err, redemption.ErrInvalidInput):
		m.ValidationErrors.WithLabelValues("invalid_input").Inc()
	}
}

// RecordDealStored increments the deals stored counter.
func (m *Metrics) RecordDealStored() {
	if m == nil {
		return
	}
	m.DealsStored.Inc()
}

// RecordRequest records an API request.
func (m *Metrics) RecordRequest(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
