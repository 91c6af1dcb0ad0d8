package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/model"
)

// MemoryStore is an in-memory allocation.Store.
type MemoryStore struct {
	mu        sync.RWMutex
	donors    map[string]model.Donor
	receivers map[string]model.Receiver
	donations map[string]model.Donation
	requests  map[string]model.PickupRequest
}

var _ allocation.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		donors:    make(map[string]model.Donor),
		receivers: make(map[string]model.Receiver),
		donations: make(map[string]model.Donation),
		requests:  make(map[string]model.PickupRequest),
	}
}

// PutDonor inserts or replaces a donor.
func (s *MemoryStore) PutDonor(_ context.Context, d model.Donor) error {
	if d.ID == "" {
		return fmt.Errorf("donor id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[d.ID] = d
	return nil
}

// PutReceiver inserts or replaces a receiver.
func (s *MemoryStore) PutReceiver(_ context.Context, r model.Receiver) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers[r.ID] = r
	return nil
}

// PutDonation inserts or replaces a donation after applying defaults.
func (s *MemoryStore) PutDonation(_ context.Context, d model.Donation) error {
	d.SetDefaults()
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donors[d.DonorID]; !ok {
		return model.NewNotFound("donor", d.DonorID)
	}
	s.donations[d.ID] = d
	return nil
}

func (s *MemoryStore) Donor(_ context.Context, id string) (model.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donors[id]
	if !ok {
		return model.Donor{}, model.NewNotFound("donor", id)
	}
	return d, nil
}

func (s *MemoryStore) Donation(_ context.Context, id string) (model.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[id]
	if !ok {
		return model.Donation{}, model.NewNotFound("donation", id)
	}
	return d, nil
}

func (s *MemoryStore) Receiver(_ context.Context, id string) (model.Receiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receivers[id]
	if !ok {
		return model.Receiver{}, model.NewNotFound("receiver", id)
	}
	return r, nil
}

func (s *MemoryStore) Request(_ context.Context, id string) (model.PickupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return model.PickupRequest{}, model.NewNotFound("pickup request", id)
	}
	return r, nil
}

func (s *MemoryStore) RequestsForDonation(_ context.Context, donationID string) ([]model.PickupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRequests(func(r model.PickupRequest) bool { return r.DonationID == donationID }), nil
}

func (s *MemoryStore) RequestsForReceiver(_ context.Context, receiverID string) ([]model.PickupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRequests(func(r model.PickupRequest) bool { return r.ReceiverID == receiverID }), nil
}

func (s *MemoryStore) PendingForDonor(_ context.Context, donorID string) ([]model.PickupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRequests(func(r model.PickupRequest) bool {
		return r.Status == model.RequestPending && s.donations[r.DonationID].DonorID == donorID
	}), nil
}

// filterRequests returns matches ordered by creation time. Callers hold mu.
func (s *MemoryStore) filterRequests(keep func(model.PickupRequest) bool) []model.PickupRequest {
	out := []model.PickupRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) AvailableDonations(_ context.Context) ([]model.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Donation{}
	for _, d := range s.donations {
		if d.Status == model.DonationAvailable {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, req model.PickupRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return fmt.Errorf("pickup request %s: %w", req.ID, model.ErrConflict)
	}
	d, ok := s.donations[req.DonationID]
	if !ok {
		return model.NewNotFound("donation", req.DonationID)
	}
	if d.Status != model.DonationAvailable {
		return fmt.Errorf("donation %s is %s: %w", d.ID, d.Status, model.ErrConflict)
	}
	s.requests[req.ID] = req
	return nil
}

func (s *MemoryStore) SetPriority(_ context.Context, donationID string, score float64, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return model.NewNotFound("donation", donationID)
	}
	d.PriorityScore = score
	d.PriorityModelVersion = version
	s.donations[donationID] = d
	return nil
}

// ApplyDecision checks and writes under a single lock hold, which makes the
// whole decision atomic.
func (s *MemoryStore) ApplyDecision(_ context.Context, dec allocation.Decision) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[dec.RequestID]
	if !ok {
		return nil, model.NewNotFound("pickup request", dec.RequestID)
	}
	if req.Status != model.RequestPending {
		return nil, fmt.Errorf("pickup request %s is %s: %w", req.ID, req.Status, model.ErrConflict)
	}
	if dec.Verdict == model.DecisionReject {
		req.Status = model.RequestRejected
		req.DecidedAt = dec.At
		s.requests[req.ID] = req
		return nil, nil
	}

	donation, ok := s.donations[req.DonationID]
	if !ok {
		return nil, model.NewNotFound("donation", req.DonationID)
	}
	if donation.Status != model.DonationAvailable {
		return nil, fmt.Errorf("donation %s is %s: %w", donation.ID, donation.Status, model.ErrConflict)
	}
	req.Status = model.RequestAccepted
	req.DecidedAt = dec.At
	s.requests[req.ID] = req
	donation.Status = model.DonationReserved
	donation.AssignedReceiver = req.ReceiverID
	s.donations[donation.ID] = donation

	var rejected []string
	for id, r := range s.requests {
		if r.DonationID == donation.ID && id != req.ID && r.Status == model.RequestPending {
			r.Status = model.RequestRejected
			r.DecidedAt = dec.At
			s.requests[id] = r
			rejected = append(rejected, id)
		}
	}
	sort.Strings(rejected)
	return rejected, nil
}

func (s *MemoryStore) CompleteDonation(_ context.Context, donationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return model.NewNotFound("donation", donationID)
	}
	if d.Status != model.DonationReserved {
		return fmt.Errorf("donation %s is %s: %w", donationID, d.Status, model.ErrConflict)
	}
	d.Status = model.DonationCompleted
	s.donations[donationID] = d
	return nil
}
