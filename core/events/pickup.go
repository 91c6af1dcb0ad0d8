package events

import (
	"time"

	"github.com/kilianp07/zerowaste/core/model"
)

// Event is implemented by every allocation event.
type Event interface {
	// Kind names the event for logs and metrics labels.
	Kind() string
}

// PickupRequested is published once a pending request is stored.
type PickupRequested struct {
	Request model.PickupRequest
	DonorID string
}

func (PickupRequested) Kind() string { return "pickup_requested" }

// PickupDecided is published after a donor decision is committed.
type PickupDecided struct {
	Request  model.PickupRequest
	DonorID  string
	Decision model.Decision
	// Cascaded lists the sibling requests rejected by an accept.
	Cascaded []string
	Time     time.Time
}

func (PickupDecided) Kind() string { return "pickup_decided" }

// PickupRejected is published for each sibling closed by an accept.
type PickupRejected struct {
	RequestID  string
	DonationID string
	ReceiverID string
	WinnerID   string
	Time       time.Time
}

func (PickupRejected) Kind() string { return "pickup_rejected" }

// DonationCompleted is published when a reserved donation is collected.
type DonationCompleted struct {
	DonationID string
	ReceiverID string
	Time       time.Time
}

func (DonationCompleted) Kind() string { return "donation_completed" }
