package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/core/events"
	"github.com/kilianp07/zerowaste/core/features"
	"github.com/kilianp07/zerowaste/core/logger"
	"github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/monitoring"
	"github.com/kilianp07/zerowaste/core/scoring"
	"github.com/kilianp07/zerowaste/internal/eventbus"
)

// Engine scores pickup requests and applies donor decisions. It is safe for
// concurrent use; work on the same donation is serialized.
type Engine struct {
	store       Store
	scorer      *scoring.Scorer
	features    *features.Builder
	locks       *keyedMutex
	log         logger.Logger
	bus         *eventbus.Bus[events.Event]
	sink        metrics.MetricsSink
	audit       audit.LogStore
	now         func() time.Time
	newID       func() string
	concurrency int
}

// NewEngine creates an engine over store. A nil scorer means the model
// artifacts could not be loaded and fails with model.ErrScoringUnavailable.
func NewEngine(store Store, scorer *scoring.Scorer, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("allocation: nil store")
	}
	if scorer == nil || scorer.Encoder() == nil {
		return nil, fmt.Errorf("allocation: %w", model.ErrScoringUnavailable)
	}
	fb, err := features.NewBuilder(scorer.Encoder())
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	e := &Engine{
		store:       store,
		scorer:      scorer,
		features:    fb,
		locks:       newKeyedMutex(),
		log:         logger.NopLogger{},
		sink:        metrics.NopSink{},
		audit:       audit.NopStore{},
		now:         time.Now,
		newID:       newRequestID,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ModelVersion returns the version of the model scoring new requests.
func (e *Engine) ModelVersion() string { return e.scorer.Version() }

// RequestPickup records receiverID's request for donationID. The score is
// computed before anything is stored, so a scoring failure leaves no
// request behind. The pickup is scheduled at the donation expiry.
func (e *Engine) RequestPickup(ctx context.Context, donationID, receiverID string, now time.Time) (PickupRequestView, error) {
	unlock := e.locks.Lock(donationID)
	defer unlock()

	donation, err := e.store.Donation(ctx, donationID)
	if err != nil {
		pickupRequests.WithLabelValues("not_found").Inc()
		return PickupRequestView{}, e.storeErr("load donation", err)
	}
	if donation.Status != model.DonationAvailable {
		pickupRequests.WithLabelValues("not_available").Inc()
		return PickupRequestView{}, &model.DonationNotAvailableError{DonationID: donationID, Status: donation.Status}
	}
	receiver, err := e.store.Receiver(ctx, receiverID)
	if err != nil {
		pickupRequests.WithLabelValues("not_found").Inc()
		return PickupRequestView{}, e.storeErr("load receiver", err)
	}
	donor, err := e.store.Donor(ctx, donation.DonorID)
	if err != nil {
		pickupRequests.WithLabelValues("not_found").Inc()
		return PickupRequestView{}, e.storeErr("load donor", err)
	}

	fv, score, err := e.scorePair(donor, donation, receiver, now)
	if err != nil {
		pickupRequests.WithLabelValues("scoring_failed").Inc()
		return PickupRequestView{}, fmt.Errorf("request pickup of %s: %w", donationID, err)
	}

	req := model.PickupRequest{
		ID:            e.newID(),
		DonationID:    donationID,
		ReceiverID:    receiverID,
		PriorityScore: score,
		ModelVersion:  e.scorer.Version(),
		ScheduledAt:   donation.ExpiresAt,
		Status:        model.RequestPending,
		CreatedAt:     now,
	}
	if err := e.store.CreateRequest(ctx, req); err != nil {
		// Another process may have reserved the donation since it was read.
		if errors.Is(err, model.ErrConflict) {
			if cur, rerr := e.store.Donation(ctx, donationID); rerr == nil && cur.Status != model.DonationAvailable {
				pickupRequests.WithLabelValues("not_available").Inc()
				return PickupRequestView{}, &model.DonationNotAvailableError{DonationID: donationID, Status: cur.Status}
			}
		}
		pickupRequests.WithLabelValues("store_failed").Inc()
		return PickupRequestView{}, e.storeErr("create request", err)
	}
	pickupRequests.WithLabelValues("created").Inc()
	e.log.Infof("pickup request %s: receiver %s asked for donation %s (score %.3f)", req.ID, receiverID, donationID, score)

	if r, ok := e.sink.(metrics.RequestRecorder); ok {
		if err := r.RecordRequest(metrics.RequestEvent{Request: req, DonorID: donor.ID, Time: now}); err != nil {
			e.log.Warnf("metrics: record request: %v", err)
		}
	}
	e.appendAudit(ctx, audit.Record{
		Timestamp:    now,
		Action:       audit.ActionRequest,
		RequestID:    req.ID,
		DonationID:   donationID,
		DonorID:      donor.ID,
		ReceiverID:   receiverID,
		Score:        score,
		ModelVersion: req.ModelVersion,
	})
	e.publish(events.PickupRequested{Request: req, DonorID: donor.ID})
	return newRequestView(req, fv), nil
}

// DecidePickup applies the donor's decision to a pending request. Accepting
// reserves the donation for the requester and rejects every other pending
// request for it. An accept that arrives after another request won fails
// with an InvalidTransitionError whose Lost flag is set.
//
//gocyclo:ignore
func (e *Engine) DecidePickup(ctx context.Context, requestID string, decision model.Decision) error {
	if !decision.Valid() {
		return fmt.Errorf("decide pickup %s: unknown decision %q", requestID, decision)
	}
	req, err := e.store.Request(ctx, requestID)
	if err != nil {
		return e.storeErr("load request", err)
	}

	unlock := e.locks.Lock(req.DonationID)
	defer unlock()

	// Re-read under the lock; the first read only located the donation.
	req, err = e.store.Request(ctx, requestID)
	if err != nil {
		return e.storeErr("load request", err)
	}
	target := decision.Target()
	if req.Status != model.RequestPending {
		// A request rejected by another request's acceptance lost the race;
		// one the donor rejected directly did not.
		if decision == model.DecisionAccept && req.Status == model.RequestRejected {
			_, won, err := e.allocation(ctx, req)
			if err != nil {
				return err
			}
			if won {
				return e.lostRace(ctx, req)
			}
		}
		pickupDecisions.WithLabelValues(string(decision), "invalid").Inc()
		return &model.InvalidTransitionError{RequestID: requestID, From: req.Status, To: target}
	}

	siblings := map[string]string{}
	if decision == model.DecisionAccept {
		var won bool
		siblings, won, err = e.allocation(ctx, req)
		if err != nil {
			return err
		}
		if won {
			return e.lostRace(ctx, req)
		}
	}

	at := e.now()
	cascaded, err := e.store.ApplyDecision(ctx, Decision{
		RequestID:  req.ID,
		DonationID: req.DonationID,
		ReceiverID: req.ReceiverID,
		Verdict:    decision,
		At:         at,
	})
	if errors.Is(err, model.ErrConflict) {
		if decision == model.DecisionAccept {
			return e.lostRace(ctx, req)
		}
		from := req.Status
		if cur, rerr := e.store.Request(ctx, requestID); rerr == nil {
			from = cur.Status
		}
		pickupDecisions.WithLabelValues(string(decision), "invalid").Inc()
		return &model.InvalidTransitionError{RequestID: requestID, From: from, To: target}
	}
	if err != nil {
		return e.storeErr("apply decision", err)
	}

	req.Status = target
	req.DecidedAt = at
	pickupDecisions.WithLabelValues(string(decision), string(target)).Inc()
	if len(cascaded) > 0 {
		pickupDecisions.WithLabelValues("cascade", string(model.RequestRejected)).Add(float64(len(cascaded)))
	}
	e.log.Infof("pickup request %s %s by donor; %d sibling requests rejected", req.ID, target, len(cascaded))

	e.recordDecision(ctx, req, decision, string(target), cascaded, at)
	e.publish(events.PickupDecided{Request: req, Decision: decision, Cascaded: cascaded, Time: at, DonorID: e.donorOf(ctx, req.DonationID)})
	for _, id := range cascaded {
		e.publish(events.PickupRejected{RequestID: id, DonationID: req.DonationID, ReceiverID: siblings[id], WinnerID: req.ID, Time: at})
	}
	return nil
}

// allocation maps the other requests for req's donation to their receivers
// and reports whether the donation already went to one of them.
func (e *Engine) allocation(ctx context.Context, req model.PickupRequest) (map[string]string, bool, error) {
	donation, err := e.store.Donation(ctx, req.DonationID)
	if err != nil {
		return nil, false, e.storeErr("load donation", err)
	}
	all, err := e.store.RequestsForDonation(ctx, req.DonationID)
	if err != nil {
		return nil, false, e.storeErr("load sibling requests", err)
	}
	siblings := make(map[string]string, len(all))
	won := donation.Status != model.DonationAvailable
	for _, s := range all {
		if s.ID == req.ID {
			continue
		}
		if s.Status == model.RequestAccepted {
			won = true
		}
		siblings[s.ID] = s.ReceiverID
	}
	return siblings, won, nil
}

func (e *Engine) lostRace(ctx context.Context, req model.PickupRequest) error {
	pickupDecisions.WithLabelValues(string(model.DecisionAccept), "lost").Inc()
	e.log.Warnf("pickup request %s: donation %s was already allocated", req.ID, req.DonationID)
	e.recordDecision(ctx, req, model.DecisionAccept, "lost", nil, e.now())
	return &model.InvalidTransitionError{RequestID: req.ID, From: req.Status, To: model.RequestAccepted, Lost: true}
}

// CompletePickup marks a reserved donation as collected.
func (e *Engine) CompletePickup(ctx context.Context, donationID string) error {
	unlock := e.locks.Lock(donationID)
	defer unlock()

	donation, err := e.store.Donation(ctx, donationID)
	if err != nil {
		return e.storeErr("load donation", err)
	}
	if !donation.Status.CanTransition(model.DonationCompleted) {
		return fmt.Errorf("%w: donation %s is %s, not reserved", model.ErrInvalidTransition, donationID, donation.Status)
	}
	if err := e.store.CompleteDonation(ctx, donationID); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return fmt.Errorf("%w: donation %s changed concurrently", model.ErrInvalidTransition, donationID)
		}
		return e.storeErr("complete donation", err)
	}
	at := e.now()
	e.log.Infof("donation %s collected by receiver %s", donationID, donation.AssignedReceiver)

	if r, ok := e.sink.(metrics.CompletionRecorder); ok {
		if err := r.RecordCompletion(metrics.CompletionEvent{
			DonationID: donationID,
			ReceiverID: donation.AssignedReceiver,
			Quantity:   donation.Quantity,
			Unit:       donation.Unit,
			Time:       at,
		}); err != nil {
			e.log.Warnf("metrics: record completion: %v", err)
		}
	}
	e.appendAudit(ctx, audit.Record{
		Timestamp:  at,
		Action:     audit.ActionComplete,
		DonationID: donationID,
		DonorID:    donation.DonorID,
		ReceiverID: donation.AssignedReceiver,
	})
	e.publish(events.DonationCompleted{DonationID: donationID, ReceiverID: donation.AssignedReceiver, Time: at})
	return nil
}

// Score computes the priority of donationID for receiverID without storing
// anything.
func (e *Engine) Score(ctx context.Context, donationID, receiverID string, now time.Time) (float64, error) {
	donor, donation, receiver, err := e.loadPair(ctx, donationID, receiverID)
	if err != nil {
		return 0, err
	}
	_, score, err := e.scorePair(donor, donation, receiver, now)
	if err != nil {
		return 0, fmt.Errorf("score %s for %s: %w", donationID, receiverID, err)
	}
	return score, nil
}

// RecomputePriority scores the donation for receiverID and stores the result
// as the donation's displayed priority. The displayed value belongs to
// whichever receiver looked last; stored requests keep their frozen score.
func (e *Engine) RecomputePriority(ctx context.Context, donationID, receiverID string, now time.Time) (float64, error) {
	score, err := e.Score(ctx, donationID, receiverID, now)
	if err != nil {
		return 0, err
	}
	if err := e.store.SetPriority(ctx, donationID, score, e.scorer.Version()); err != nil {
		return 0, e.storeErr("set priority", err)
	}
	return score, nil
}

// RefreshAvailable scores every available donation for receiverID, stores
// the display scores and returns the donations ranked by score. Donations
// that cannot be scored are kept at the end of the list with Err set.
func (e *Engine) RefreshAvailable(ctx context.Context, receiverID string, now time.Time) ([]ScoredDonation, error) {
	receiver, err := e.store.Receiver(ctx, receiverID)
	if err != nil {
		return nil, e.storeErr("load receiver", err)
	}
	donations, err := e.store.AvailableDonations(ctx)
	if err != nil {
		return nil, e.storeErr("list available donations", err)
	}

	version := e.scorer.Version()
	out := make([]ScoredDonation, len(donations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, d := range donations {
		g.Go(func() error {
			out[i] = ScoredDonation{Donation: d}
			donor, err := e.store.Donor(gctx, d.DonorID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					out[i].Err = err
					return nil
				}
				return err
			}
			fv, score, err := e.scorePair(donor, d, receiver, now)
			if errors.Is(err, model.ErrUnknownCategory) {
				out[i].Err = err
				return nil
			}
			if err != nil {
				return err
			}
			if err := e.store.SetPriority(gctx, d.ID, score, version); err != nil {
				return err
			}
			out[i].Donation.PriorityScore = score
			out[i].Donation.PriorityModelVersion = version
			out[i].Score = score
			out[i].DisplayScore = scoring.Clamp01(score)
			out[i].ExpiryRisk = scoring.ExpiryRisk(fv.TimeToExpiryHours)
			out[i].Urgency = scoring.Urgency(fv)
			out[i].DistanceKM = fv.ReceiverDistanceKM
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.storeErr("refresh available donations", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Err == nil) != (out[j].Err == nil) {
			return out[i].Err == nil
		}
		return out[i].Score > out[j].Score
	})
	e.log.Debugw("refreshed available donations", map[string]any{
		"receiver":  receiverID,
		"donations": len(out),
		"version":   version,
	})
	return out, nil
}

// PendingForDonor lists the pending requests a donor has to decide on.
func (e *Engine) PendingForDonor(ctx context.Context, donorID string) ([]model.PickupRequest, error) {
	if _, err := e.store.Donor(ctx, donorID); err != nil {
		return nil, e.storeErr("load donor", err)
	}
	reqs, err := e.store.PendingForDonor(ctx, donorID)
	if err != nil {
		return nil, e.storeErr("list pending requests", err)
	}
	return reqs, nil
}

// RequestsForReceiver lists a receiver's requests in every state.
func (e *Engine) RequestsForReceiver(ctx context.Context, receiverID string) ([]model.PickupRequest, error) {
	if _, err := e.store.Receiver(ctx, receiverID); err != nil {
		return nil, e.storeErr("load receiver", err)
	}
	reqs, err := e.store.RequestsForReceiver(ctx, receiverID)
	if err != nil {
		return nil, e.storeErr("list receiver requests", err)
	}
	return reqs, nil
}

func (e *Engine) loadPair(ctx context.Context, donationID, receiverID string) (model.Donor, model.Donation, model.Receiver, error) {
	donation, err := e.store.Donation(ctx, donationID)
	if err != nil {
		return model.Donor{}, model.Donation{}, model.Receiver{}, e.storeErr("load donation", err)
	}
	receiver, err := e.store.Receiver(ctx, receiverID)
	if err != nil {
		return model.Donor{}, model.Donation{}, model.Receiver{}, e.storeErr("load receiver", err)
	}
	donor, err := e.store.Donor(ctx, donation.DonorID)
	if err != nil {
		return model.Donor{}, model.Donation{}, model.Receiver{}, e.storeErr("load donor", err)
	}
	return donor, donation, receiver, nil
}

func (e *Engine) scorePair(donor model.Donor, donation model.Donation, receiver model.Receiver, now time.Time) (model.FeatureVector, float64, error) {
	start := time.Now()
	fv, err := e.features.Build(donor, donation, receiver, now)
	if err != nil {
		scoringFailures.WithLabelValues(failureReason(err)).Inc()
		return fv, 0, err
	}
	score, err := e.scorer.Score(fv)
	if err != nil {
		scoringFailures.WithLabelValues(failureReason(err)).Inc()
		return fv, 0, err
	}
	dur := time.Since(start)
	scoringLatency.Observe(dur.Seconds())
	priorityScores.WithLabelValues(e.scorer.Version()).Observe(score)
	if err := e.sink.RecordScore(metrics.ScoreEvent{
		DonationID:   donation.ID,
		ReceiverID:   receiver.ID,
		FoodType:     donation.FoodType,
		Score:        score,
		ModelVersion: e.scorer.Version(),
		Features:     fv,
		Duration:     dur,
		Time:         now,
	}); err != nil {
		e.log.Warnf("metrics: record score: %v", err)
	}
	return fv, score, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, model.ErrScoringUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

func (e *Engine) recordDecision(ctx context.Context, req model.PickupRequest, decision model.Decision, outcome string, cascaded []string, at time.Time) {
	if r, ok := e.sink.(metrics.DecisionRecorder); ok {
		if err := r.RecordDecision(metrics.DecisionEvent{
			RequestID:  req.ID,
			DonationID: req.DonationID,
			ReceiverID: req.ReceiverID,
			Decision:   decision,
			Outcome:    outcome,
			Cascaded:   len(cascaded),
			Latency:    at.Sub(req.CreatedAt),
			Time:       at,
		}); err != nil {
			e.log.Warnf("metrics: record decision: %v", err)
		}
	}
	e.appendAudit(ctx, audit.Record{
		Timestamp:    at,
		Action:       audit.ActionDecision,
		RequestID:    req.ID,
		DonationID:   req.DonationID,
		ReceiverID:   req.ReceiverID,
		Decision:     string(decision),
		Outcome:      outcome,
		Score:        req.PriorityScore,
		ModelVersion: req.ModelVersion,
		Cascaded:     cascaded,
	})
}

func (e *Engine) donorOf(ctx context.Context, donationID string) string {
	d, err := e.store.Donation(ctx, donationID)
	if err != nil {
		return ""
	}
	return d.DonorID
}

func (e *Engine) appendAudit(ctx context.Context, rec audit.Record) {
	if err := e.audit.Append(ctx, rec); err != nil {
		e.log.Errorf("audit: %v", err)
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// storeErr wraps err with op. Missing rows are expected; anything else is
// reported to the error monitor.
func (e *Engine) storeErr(op string, err error) error {
	if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, context.Canceled) {
		e.log.Errorf("%s: %v", op, err)
		monitoring.CaptureException(err, map[string]string{"component": "allocation", "op": op})
	}
	return fmt.Errorf("%s: %w", op, err)
}
