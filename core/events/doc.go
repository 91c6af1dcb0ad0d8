// Package events defines the allocation events emitted on the event bus.
//
// Available event types:
//   - PickupRequested: a receiver asked for a donation
//   - PickupDecided: a donor accepted or rejected a request
//   - PickupRejected: a pending request was closed because a sibling won
//   - DonationCompleted: a reserved donation was collected
package events
