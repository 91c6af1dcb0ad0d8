package model

import (
	"fmt"
	"time"
)

// DonationStatus is the allocation state of a donation.
type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationReserved  DonationStatus = "reserved"
	DonationCompleted DonationStatus = "completed"
)

// DefaultUnit is applied to donations posted without a unit.
const DefaultUnit = "kg"

// CanTransition reports whether the status may move to next. Donation status
// only moves forward: available -> reserved -> completed.
func (s DonationStatus) CanTransition(next DonationStatus) bool {
	switch s {
	case DonationAvailable:
		return next == DonationReserved
	case DonationReserved:
		return next == DonationCompleted
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationAvailable, DonationReserved, DonationCompleted:
		return true
	}
	return false
}

// Donor owns donations and provides the pickup location.
type Donor struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Location Location `json:"location" yaml:"location"`
}

// Donation is a posted quantity of food with an expiry deadline.
type Donation struct {
	ID               string         `json:"id" yaml:"id"`
	DonorID          string         `json:"donor_id" yaml:"donor_id"`
	FoodType         string         `json:"food_type" yaml:"food_type"`
	Quantity         float64        `json:"quantity" yaml:"quantity"`
	Unit             string         `json:"unit" yaml:"unit"`
	ExpiresAt        time.Time      `json:"expires_at" yaml:"expires_at"`
	Status           DonationStatus `json:"status" yaml:"status"`
	AssignedReceiver string         `json:"assigned_receiver,omitempty" yaml:"assigned_receiver,omitempty"`

	// PriorityScore is the last displayed score. It is a cache refreshed for
	// whichever receiver viewed the donation last.
	PriorityScore        float64   `json:"priority_score" yaml:"priority_score"`
	PriorityModelVersion string    `json:"priority_model_version,omitempty" yaml:"priority_model_version,omitempty"`
	CreatedAt            time.Time `json:"created_at" yaml:"created_at"`
}

// SetDefaults fills the status and unit of a freshly posted donation.
func (d *Donation) SetDefaults() {
	if d.Status == "" {
		d.Status = DonationAvailable
	}
	if d.Unit == "" {
		d.Unit = DefaultUnit
	}
}

// Validate checks the donation fields and status invariants.
func (d Donation) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("donation id is required")
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("donation %s: quantity must be positive", d.ID)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("donation %s: unknown status %q", d.ID, d.Status)
	}
	if d.Status != DonationAvailable && d.AssignedReceiver == "" {
		return fmt.Errorf("donation %s: %s donation has no assigned receiver", d.ID, d.Status)
	}
	return nil
}

// TimeToExpiry returns the remaining time before expiry. It is negative once
// the donation has expired.
func (d Donation) TimeToExpiry(now time.Time) time.Duration {
	return d.ExpiresAt.Sub(now)
}

// Expired reports whether the donation expiry is in the past.
func (d Donation) Expired(now time.Time) bool {
	return d.TimeToExpiry(now) < 0
}
