package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess    = "success"
	outcomeSuperseded = "superseded"
)

var (
	fetchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_fetch_cycles_total",
			Help: "Total number of finished stats fetch cycles by outcome",
		},
		[]string{"outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stats_fetch_duration_seconds",
			Help:    "Duration of applied stats fetch cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)

	viewsMounted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stats_views_mounted",
			Help: "Number of currently mounted stats views",
		},
	)
)

// Outcome is the metrics and event label for a settled state:
// "success" or the failure kind.
func Outcome(s State) string {
	if s.Phase == PhaseFailure && s.Err != nil {
		return string(s.Err.Kind)
	}
	return outcomeSuccess
}

func observeSettled(s State) {
	outcome := Outcome(s)
	fetchCycles.WithLabelValues(outcome).Inc()
	fetchDuration.WithLabelValues(outcome).Observe(s.Duration().Seconds())
}
