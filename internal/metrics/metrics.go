// Package metrics exposes Prometheus instruments for agent dispatches.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes
const (
	OutcomeEmitted  = "emitted"
	OutcomeSilent   = "silent" // call succeeded, emission disabled
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// InvalidAction labels dispatches whose type is not a supported action.
const InvalidAction = "invalid"

// Metrics holds the agent instruments on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	apiStatus  *prometheus.CounterVec
}

// New creates and registers the instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegrambis_dispatches_total",
				Help: "Dispatches by action type and outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telegrambis_request_duration_seconds",
				Help:    "Duration of Bot API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		apiStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegrambis_api_responses_total",
				Help: "Bot API responses by method and HTTP status code",
			},
			[]string{"method", "code"},
		),
	}
	m.registry.MustRegister(m.dispatches, m.duration, m.apiStatus)
	return m
}

// Dispatch counts one dispatch.
func (m *Metrics) Dispatch(action, outcome string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(action, outcome).Inc()
}

// Request records a completed Bot API request.
func (m *Metrics) Request(method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method).Observe(took.Seconds())
	m.apiStatus.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// Registry returns the registry holding the instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
