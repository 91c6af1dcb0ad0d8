package metrics

import (
	"context"

	"github.com/kilianp07/zerowaste/core/events"
	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/internal/eventbus"
)

// OutcomeCascaded labels a request rejected because a sibling was accepted.
const OutcomeCascaded = "cascaded"

// StartEventCollector subscribes to the event bus and records one decision
// per cascaded rejection, so sinks see which receivers lost a donation. The
// donor's own decisions are recorded by the engine. It stops when the
// context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.DecisionRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(events.PickupRejected)
				if !ok {
					continue
				}
				_ = rec.RecordDecision(coremetrics.DecisionEvent{
					RequestID:  e.RequestID,
					DonationID: e.DonationID,
					ReceiverID: e.ReceiverID,
					Decision:   model.DecisionReject,
					Outcome:    OutcomeCascaded,
					Time:       e.Time,
				})
			}
		}
	}()
}
