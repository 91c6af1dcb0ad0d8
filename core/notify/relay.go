package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/zerowaste/core/events"
	"github.com/kilianp07/zerowaste/core/logger"
	"github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/core/model"
)

// Publisher delivers a payload on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Topics builds the notification topic names under a common prefix.
type Topics struct {
	Prefix string
}

// DonorRequests is where donors hear about new requests.
func (t Topics) DonorRequests(donorID string) string {
	return fmt.Sprintf("%s/donors/%s/requests", t.Prefix, donorID)
}

// ReceiverPickups is where receivers hear about decisions.
func (t Topics) ReceiverPickups(receiverID string) string {
	return fmt.Sprintf("%s/receivers/%s/pickups", t.Prefix, receiverID)
}

// Notice is the payload published for every allocation change.
type Notice struct {
	MessageID  string              `json:"message_id"`
	Kind       string              `json:"kind"`
	RequestID  string              `json:"request_id"`
	DonationID string              `json:"donation_id"`
	Status     model.RequestStatus `json:"status,omitempty"`
	Message    string              `json:"message"`
	Timestamp  int64               `json:"timestamp"`
}

type delivery struct {
	topic     string
	recipient string
	notice    Notice
}

// Relay forwards allocation events to donors and receivers.
type Relay struct {
	pub    Publisher
	topics Topics
	log    logger.Logger
	sink   metrics.MetricsSink
	now    func() time.Time
}

// NewRelay returns a relay publishing through pub. sink may be nil.
func NewRelay(pub Publisher, topics Topics, log logger.Logger, sink metrics.MetricsSink) *Relay {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Relay{pub: pub, topics: topics, log: log, sink: sink, now: time.Now}
}

// Run consumes events until ctx is done or the channel is closed.
func (r *Relay) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.Handle(ctx, ev)
		}
	}
}

// Handle publishes the notices derived from one event. Delivery failures
// are logged and counted; they never reach the allocation path.
func (r *Relay) Handle(ctx context.Context, ev events.Event) {
	for _, d := range r.deliveries(ev) {
		payload, err := json.Marshal(d.notice)
		if err != nil {
			r.log.Errorf("notify: encode %s: %v", d.notice.Kind, err)
			continue
		}
		err = r.pub.Publish(ctx, d.topic, payload)
		if err != nil {
			r.log.Warnf("notify: publish to %s: %v", d.topic, err)
		}
		if nr, ok := r.sink.(metrics.NotificationRecorder); ok {
			if merr := nr.RecordNotification(metrics.NotificationEvent{
				Topic:     d.topic,
				Recipient: d.recipient,
				Delivered: err == nil,
				Time:      r.now(),
			}); merr != nil {
				r.log.Warnf("metrics: record notification: %v", merr)
			}
		}
	}
}

func (r *Relay) deliveries(ev events.Event) []delivery {
	ts := r.now().UnixMilli()
	switch e := ev.(type) {
	case events.PickupRequested:
		if e.DonorID == "" {
			return nil
		}
		return []delivery{{
			topic:     r.topics.DonorRequests(e.DonorID),
			recipient: e.DonorID,
			notice: Notice{
				MessageID:  uuid.NewString(),
				Kind:       ev.Kind(),
				RequestID:  e.Request.ID,
				DonationID: e.Request.DonationID,
				Status:     e.Request.Status,
				Message:    NewRequestMessage,
				Timestamp:  ts,
			},
		}}
	case events.PickupDecided:
		msg := AllocatedMessage(e.Request.ID)
		if e.Request.Status == model.RequestRejected {
			msg = LostMessage(e.Request.ID)
		}
		return []delivery{{
			topic:     r.topics.ReceiverPickups(e.Request.ReceiverID),
			recipient: e.Request.ReceiverID,
			notice: Notice{
				MessageID:  uuid.NewString(),
				Kind:       ev.Kind(),
				RequestID:  e.Request.ID,
				DonationID: e.Request.DonationID,
				Status:     e.Request.Status,
				Message:    msg,
				Timestamp:  ts,
			},
		}}
	case events.PickupRejected:
		return []delivery{{
			topic:     r.topics.ReceiverPickups(e.ReceiverID),
			recipient: e.ReceiverID,
			notice: Notice{
				MessageID:  uuid.NewString(),
				Kind:       ev.Kind(),
				RequestID:  e.RequestID,
				DonationID: e.DonationID,
				Status:     model.RequestRejected,
				Message:    LostMessage(e.RequestID),
				Timestamp:  ts,
			},
		}}
	default:
		return nil
	}
}
