// Package metrics holds the Prometheus collectors for extraction, fetching and analysis.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every jobprep metric.
const Namespace = "jobprep"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ExtractionMethods  *prometheus.CounterVec
	FetchAttempts      *prometheus.CounterVec
	AnalyzeRequests    *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ExtractionMethods: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "extraction_method_total",
				Help:      "Accepted extraction results by method",
			},
			[]string{"method"},
		),
		FetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetch_attempts_total",
				Help:      "Fetch pipeline attempts by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		AnalyzeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "analyze_requests_total",
				Help:      "Analyze requests by input source and response status",
			},
			[]string{"source", "status"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "generation_duration_seconds",
				Help:      "Latency of the generative step",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status code",
			},
			[]string{"route", "code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveExtraction counts an accepted extraction method.
func (m *Metrics) ObserveExtraction(method string) {
	if m == nil {
		return
	}
	m.ExtractionMethods.WithLabelValues(method).Inc()
}

// ObserveFetch counts one pipeline attempt.
func (m *Metrics) ObserveFetch(stage, outcome string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(stage, outcome).Inc()
}

// ObserveAnalyze counts one analyze request.
func (m *Metrics) ObserveAnalyze(source, status string) {
	if m == nil {
		return
	}
	m.AnalyzeRequests.WithLabelValues(source, status).Inc()
}

// ObserveGeneration records the duration of one generative call.
func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
