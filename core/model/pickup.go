package model

import "time"

// RequestStatus is the state of a pickup request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

// Decision is the donor verdict on a pending request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Valid reports whether d is accept or reject.
func (d Decision) Valid() bool { return d == DecisionAccept || d == DecisionReject }

// Target returns the request status the decision leads to.
func (d Decision) Target() RequestStatus {
	if d == DecisionAccept {
		return RequestAccepted
	}
	return RequestRejected
}

// PickupRequest is a receiver's bid to collect a donation. The priority score
// and model version are frozen at creation.
type PickupRequest struct {
	ID            string        `json:"id"`
	DonationID    string        `json:"donation_id"`
	ReceiverID    string        `json:"receiver_id"`
	PriorityScore float64       `json:"priority_score"`
	ModelVersion  string        `json:"model_version"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	DecidedAt     time.Time     `json:"decided_at,omitempty"`
}
