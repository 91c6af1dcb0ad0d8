package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pickupRequests  *prometheus.CounterVec
	pickupDecisions *prometheus.CounterVec
	priorityScores  *prometheus.HistogramVec
	scoringLatency  prometheus.Histogram
	scoringFailures *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Histogram, *prometheus.CounterVec) {
	req := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_requests_total",
			Help: "Pickup requests by outcome",
		},
		[]string{"outcome"},
	)
	dec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_decisions_total",
			Help: "Donor decisions by verdict and outcome",
		},
		[]string{"decision", "outcome"},
	)
	scores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "priority_score",
			Help:    "Raw priority scores returned by the model",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"model_version"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "priority_scoring_seconds",
			Help:    "Time spent building features and evaluating the model",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
	fail := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priority_scoring_failures_total",
			Help: "Scoring attempts that returned an error",
		},
		[]string{"reason"},
	)
	return req, dec, scores, lat, fail
}

func init() {
	pickupRequests, pickupDecisions, priorityScores, scoringLatency, scoringFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers allocation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(pickupRequests, pickupDecisions, priorityScores, scoringLatency, scoringFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	pickupRequests, pickupDecisions, priorityScores, scoringLatency, scoringFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
