package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
)

// PromSink exposes sink events as Prometheus collectors. The engine keeps
// its own request and decision counters; this sink adds per-model score
// counts, decision latency and delivery outcomes.
type PromSink struct {
	scores        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	completions   prometheus.Counter
	collected     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewPromSink registers the sink collectors on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the collectors on reg. A collector that
// is already registered is reused, so building the sink twice is harmless.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.scores, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_priority_scores_total",
		Help: "Priority scores computed, by model version and food type",
	}, []string{"model_version", "food_type"})); err != nil {
		return nil, err
	}
	if s.decisions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_pickup_decisions_total",
		Help: "Donor decisions by outcome, including cascaded rejections",
	}, []string{"decision", "outcome"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pickup_decision_latency_seconds",
		Help:    "Time between a pickup request and the donor decision",
		Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 21600, 86400},
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.completions, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pickup_completions_total",
		Help: "Donations collected by their receiver",
	})); err != nil {
		return nil, err
	}
	if s.collected, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collected_quantity_total",
		Help: "Quantity of food collected, by unit",
	}, []string{"unit"})); err != nil {
		return nil, err
	}
	if s.notifications, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification deliveries by result",
	}, []string{"delivered"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordScore implements coremetrics.MetricsSink.
func (s *PromSink) RecordScore(ev coremetrics.ScoreEvent) error {
	s.scores.WithLabelValues(ev.ModelVersion, ev.FoodType).Inc()
	return nil
}

// RecordDecision counts the decision and observes its latency.
func (s *PromSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	s.decisions.WithLabelValues(string(ev.Decision), ev.Outcome).Inc()
	if ev.Latency > 0 {
		s.latency.WithLabelValues(ev.Outcome).Observe(ev.Latency.Seconds())
	}
	return nil
}

// RecordCompletion implements coremetrics.CompletionRecorder.
func (s *PromSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	s.completions.Inc()
	unit := ev.Unit
	if unit == "" {
		unit = "kg"
	}
	s.collected.WithLabelValues(unit).Add(ev.Quantity)
	return nil
}

// RecordNotification implements coremetrics.NotificationRecorder.
func (s *PromSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	s.notifications.WithLabelValues(strconv.FormatBool(ev.Delivered)).Inc()
	return nil
}
