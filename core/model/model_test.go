package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDonationStatusTransitions(t *testing.T) {
	assert.True(t, DonationAvailable.CanTransition(DonationReserved))
	assert.True(t, DonationReserved.CanTransition(DonationCompleted))
	assert.False(t, DonationReserved.CanTransition(DonationAvailable))
	assert.False(t, DonationCompleted.CanTransition(DonationReserved))
	assert.False(t, DonationAvailable.CanTransition(DonationCompleted))
}

func TestDonationValidate(t *testing.T) {
	d := Donation{ID: "d1", Quantity: 5}
	d.SetDefaults()
	assert.Equal(t, DonationAvailable, d.Status)
	assert.Equal(t, DefaultUnit, d.Unit)
	assert.NoError(t, d.Validate())

	d.Status = DonationReserved
	assert.Error(t, d.Validate(), "reserved donation requires a receiver")
	d.AssignedReceiver = "r1"
	assert.NoError(t, d.Validate())

	assert.Error(t, Donation{ID: "d2", Status: DonationAvailable}.Validate())
}

func TestDonationExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d := Donation{ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, d.Expired(now))
	assert.Equal(t, -time.Hour, d.TimeToExpiry(now))
	d.ExpiresAt = now.Add(time.Hour)
	assert.False(t, d.Expired(now))
}

func TestFeatureVectorOrder(t *testing.T) {
	fv := FeatureVector{ReceiverCapacity: 1, ReceiverDistanceKM: 2, FoodTypeEncoded: 3, Quantity: 4, TimeToExpiryHours: 5}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, fv.Slice())
	assert.Len(t, FeatureNames, len(fv.Slice()))
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(NewNotFound("donation", "d1"), ErrNotFound))
	assert.True(t, errors.Is(&DonationNotAvailableError{DonationID: "d1", Status: DonationReserved}, ErrDonationNotAvailable))
	assert.True(t, errors.Is(&UnknownCategoryError{Label: "x"}, ErrUnknownCategory))

	lost := &InvalidTransitionError{RequestID: "p1", From: RequestPending, To: RequestAccepted, Lost: true}
	assert.True(t, errors.Is(lost, ErrInvalidTransition))
	assert.Contains(t, lost.Error(), "already allocated")

	terminal := &InvalidTransitionError{RequestID: "p1", From: RequestRejected, To: RequestAccepted}
	assert.Contains(t, terminal.Error(), "rejected")
}

func TestDecisionTarget(t *testing.T) {
	assert.Equal(t, RequestAccepted, DecisionAccept.Target())
	assert.Equal(t, RequestRejected, DecisionReject.Target())
	assert.False(t, Decision("maybe").Valid())
	assert.True(t, RequestAccepted.Terminal())
	assert.False(t, RequestPending.Terminal())
}

func TestLocationDistance(t *testing.T) {
	a := Location{Lat: 51.5074, Lng: -0.1278}
	b := Location{Lat: 48.8566, Lng: 2.3522}
	assert.InDelta(t, a.DistanceTo(b), b.DistanceTo(a), 1e-9)
	assert.Equal(t, 0.0, a.DistanceTo(a))
}
