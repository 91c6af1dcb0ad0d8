// Package allocation decides which receiver collects a donation.
//
// Receivers request pickups; each request carries a priority score computed
// by the scoring model at request time. Donors then accept or reject pending
// requests. Accepting one request reserves the donation for that receiver
// and rejects every other pending request for it, atomically. At most one
// request per donation is ever accepted, even when donors act concurrently.
//
// Scores are advisory: the engine never picks a winner on its own.
package allocation
