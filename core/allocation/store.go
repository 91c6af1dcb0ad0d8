package allocation

import (
	"context"
	"time"

	"github.com/kilianp07/zerowaste/core/model"
)

// Decision is the state change committed by Store.ApplyDecision.
type Decision struct {
	RequestID  string
	DonationID string
	ReceiverID string
	Verdict    model.Decision
	At         time.Time
}

// Store is the persistence contract of the engine. Lookups of missing rows
// return an error matching model.ErrNotFound.
type Store interface {
	Donor(ctx context.Context, id string) (model.Donor, error)
	Donation(ctx context.Context, id string) (model.Donation, error)
	Receiver(ctx context.Context, id string) (model.Receiver, error)
	Request(ctx context.Context, id string) (model.PickupRequest, error)

	RequestsForDonation(ctx context.Context, donationID string) ([]model.PickupRequest, error)
	RequestsForReceiver(ctx context.Context, receiverID string) ([]model.PickupRequest, error)
	// PendingForDonor lists pending requests on donations owned by the donor.
	PendingForDonor(ctx context.Context, donorID string) ([]model.PickupRequest, error)
	AvailableDonations(ctx context.Context) ([]model.Donation, error)

	// CreateRequest stores a new request. A duplicate ID, or a donation that
	// is no longer available, yields an error matching model.ErrConflict.
	CreateRequest(ctx context.Context, req model.PickupRequest) error
	// SetPriority overwrites the display score cached on the donation.
	SetPriority(ctx context.Context, donationID string, score float64, version string) error
	// ApplyDecision commits a decision in one atomic step and returns the IDs
	// of sibling requests rejected by an accept. The request must still be
	// pending and, for an accept, the donation still available; otherwise
	// nothing is written and an error matching model.ErrConflict is returned.
	ApplyDecision(ctx context.Context, d Decision) ([]string, error)
	// CompleteDonation moves a reserved donation to completed, or returns
	// model.ErrConflict.
	CompleteDonation(ctx context.Context, donationID string) error
}
