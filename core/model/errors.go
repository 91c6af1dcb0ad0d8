package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a donor, donation, receiver or request is absent.
	ErrNotFound = errors.New("not found")
	// ErrDonationNotAvailable is returned when a donation is not open for requests.
	ErrDonationNotAvailable = errors.New("donation not available")
	// ErrInvalidTransition is returned for decisions on non-pending requests
	// and for accepts that lost the allocation race.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownCategory is returned when a food type was not seen at training time.
	ErrUnknownCategory = errors.New("unknown food category")
	// ErrScoringUnavailable is returned when model artifacts are missing or corrupt.
	ErrScoringUnavailable = errors.New("scoring unavailable")
	// ErrConflict is returned by stores when a conditional write found the row
	// in an unexpected state.
	ErrConflict = errors.New("conflict")
)

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound returns a NotFoundError for the entity.
func NewNotFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

// DonationNotAvailableError reports the status that blocked a request.
type DonationNotAvailableError struct {
	DonationID string
	Status     DonationStatus
}

func (e *DonationNotAvailableError) Error() string {
	return fmt.Sprintf("donation %s is %s, not available", e.DonationID, e.Status)
}

func (e *DonationNotAvailableError) Is(target error) bool { return target == ErrDonationNotAvailable }

// InvalidTransitionError reports a decision that had no effect. Lost is set
// when an accept came after another receiver won the donation, whether the
// request was still pending or already rejected by that win.
type InvalidTransitionError struct {
	RequestID string
	From      RequestStatus
	To        RequestStatus
	Lost      bool
}

func (e *InvalidTransitionError) Error() string {
	if e.Lost {
		return fmt.Sprintf("request %s: this donation was already allocated", e.RequestID)
	}
	return fmt.Sprintf("request %s: cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// UnknownCategoryError names the unseen food label.
type UnknownCategoryError struct {
	Label string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("food type %q was not seen during training", e.Label)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }
