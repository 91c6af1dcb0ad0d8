package allocation

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/core/events"
	"github.com/kilianp07/zerowaste/core/logger"
	"github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/internal/eventbus"
)

// DefaultConcurrency bounds the number of donations scored in parallel by
// RefreshAvailable.
const DefaultConcurrency = 8

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithBus publishes allocation events on bus.
func WithBus(bus *eventbus.Bus[events.Event]) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithSink records scores and decisions on sink.
func WithSink(sink metrics.MetricsSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithAudit appends every committed action to store.
func WithAudit(store audit.LogStore) Option {
	return func(e *Engine) {
		if store != nil {
			e.audit = store
		}
	}
}

// WithClock replaces time.Now for decision and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for request IDs.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithConcurrency sets the RefreshAvailable worker limit.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func newRequestID() string { return uuid.NewString() }
