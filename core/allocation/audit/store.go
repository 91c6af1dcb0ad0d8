// Package audit keeps a durable trail of allocation actions: every stored
// request, donor decision and completed pickup. It answers "who got this
// donation and why" after the fact.
package audit

import (
	"context"
	"time"
)

// Action names the allocation step a record describes.
type Action string

const (
	ActionRequest  Action = "request"
	ActionDecision Action = "decision"
	ActionComplete Action = "complete"
)

// Record is one audit entry.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	RequestID    string    `json:"request_id,omitempty"`
	DonationID   string    `json:"donation_id"`
	DonorID      string    `json:"donor_id,omitempty"`
	ReceiverID   string    `json:"receiver_id,omitempty"`
	Decision     string    `json:"decision,omitempty"`
	Outcome      string    `json:"outcome,omitempty"`
	Score        float64   `json:"score,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
	// Cascaded holds the sibling requests rejected by an accept.
	Cascaded []string `json:"cascaded,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	Action     Action
	DonationID string
	ReceiverID string
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.DonationID != "" && r.DonationID != q.DonationID {
		return false
	}
	if q.ReceiverID != "" && r.ReceiverID != q.ReceiverID {
		return false
	}
	return true
}

// LogStore persists and queries audit records.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
