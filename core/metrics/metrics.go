package metrics

import (
	"time"

	"github.com/kilianp07/zerowaste/core/model"
)

// ScoreEvent is one model evaluation for a donation/receiver pair.
type ScoreEvent struct {
	DonationID   string
	ReceiverID   string
	FoodType     string
	Score        float64
	ModelVersion string
	Features     model.FeatureVector
	Duration     time.Duration
	Time         time.Time
}

// MetricsSink records priority scores. It is the only method every sink must
// provide.
type MetricsSink interface {
	RecordScore(ev ScoreEvent) error
}

// RequestEvent captures a stored pickup request.
type RequestEvent struct {
	Request model.PickupRequest
	DonorID string
	Time    time.Time
}

// RequestRecorder records pickup requests.
type RequestRecorder interface {
	RecordRequest(ev RequestEvent) error
}

// DecisionEvent captures a donor decision. Outcome is "accepted", "rejected"
// or "lost" when the accept arrived after another receiver won.
type DecisionEvent struct {
	RequestID  string
	DonationID string
	ReceiverID string
	Decision   model.Decision
	Outcome    string
	Cascaded   int
	Latency    time.Duration
	Time       time.Time
}

// DecisionRecorder records donor decisions.
type DecisionRecorder interface {
	RecordDecision(ev DecisionEvent) error
}

// CompletionEvent marks a collected donation.
type CompletionEvent struct {
	DonationID string
	ReceiverID string
	Quantity   float64
	Unit       string
	Time       time.Time
}

// CompletionRecorder records completed pickups.
type CompletionRecorder interface {
	RecordCompletion(ev CompletionEvent) error
}

// NotificationEvent records a delivery attempt to a donor or receiver.
type NotificationEvent struct {
	Topic     string
	Recipient string
	Delivered bool
	Time      time.Time
}

// NotificationRecorder records notification deliveries.
type NotificationRecorder interface {
	RecordNotification(ev NotificationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordScore(ScoreEvent) error               { return nil }
func (NopSink) RecordRequest(RequestEvent) error           { return nil }
func (NopSink) RecordDecision(DecisionEvent) error         { return nil }
func (NopSink) RecordCompletion(CompletionEvent) error     { return nil }
func (NopSink) RecordNotification(NotificationEvent) error { return nil }
