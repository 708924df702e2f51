// Package metrics exposes Prometheus collectors for the heatmap and
// commute pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

// Metrics holds the application collectors
type Metrics struct {
	HeatmapBuilds    *prometheus.CounterVec
	HeatmapDuration  prometheus.Histogram
	HeatmapPoints    prometheus.Histogram
	CommuteEstimates *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	StaleResponses   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HeatmapBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "heatmap_builds_total",
			Help:      "Heatmap refreshes by outcome.",
		}, []string{"outcome"}),
		HeatmapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commute",
			Name:      "heatmap_build_duration_seconds",
			Help:      "Time to score and normalize one heatmap grid.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		HeatmapPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commute",
			Name:      "heatmap_points",
			Help:      "Grid points requested per heatmap refresh.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		CommuteEstimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "estimates_total",
			Help:      "Route-then-predict cycles by outcome.",
		}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "upstream_requests_total",
			Help:      "Calls to external services by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "commute",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to external services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		StaleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request was issued.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.HeatmapBuilds,
			m.HeatmapDuration,
			m.HeatmapPoints,
			m.CommuteEstimates,
			m.UpstreamRequests,
			m.UpstreamDuration,
			m.StaleResponses,
		)
	}
	return m
}
