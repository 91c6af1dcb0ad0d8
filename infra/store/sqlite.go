package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS donors (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    lat  REAL NOT NULL,
    lng  REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS receivers (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL DEFAULT '',
    capacity INTEGER NOT NULL,
    lat      REAL NOT NULL,
    lng      REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS donations (
    id                     TEXT PRIMARY KEY,
    donor_id               TEXT NOT NULL REFERENCES donors(id),
    food_type              TEXT NOT NULL,
    quantity               REAL NOT NULL,
    unit                   TEXT NOT NULL,
    expires_at             INTEGER NOT NULL,
    status                 TEXT NOT NULL,
    assigned_receiver      TEXT NOT NULL DEFAULT '',
    priority_score         REAL NOT NULL DEFAULT 0,
    priority_model_version TEXT NOT NULL DEFAULT '',
    created_at             INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_donations_status ON donations(status);
CREATE TABLE IF NOT EXISTS pickup_requests (
    id             TEXT PRIMARY KEY,
    donation_id    TEXT NOT NULL REFERENCES donations(id),
    receiver_id    TEXT NOT NULL REFERENCES receivers(id),
    priority_score REAL NOT NULL,
    model_version  TEXT NOT NULL,
    scheduled_at   INTEGER NOT NULL,
    status         TEXT NOT NULL,
    created_at     INTEGER NOT NULL,
    decided_at     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_requests_donation ON pickup_requests(donation_id);
CREATE INDEX IF NOT EXISTS idx_requests_receiver ON pickup_requests(receiver_id);
`

// SQLiteStore persists donors, donations and requests to SQLite. Decisions
// run in a transaction whose updates are conditioned on the current status,
// so a stale accept changes nothing and reports model.ErrConflict.
type SQLiteStore struct {
	db *sql.DB
}

var _ allocation.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and ensures schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// PutDonor inserts or replaces a donor.
func (s *SQLiteStore) PutDonor(ctx context.Context, d model.Donor) error {
	if d.ID == "" {
		return fmt.Errorf("donor id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO donors (id, name, lat, lng) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET name=excluded.name, lat=excluded.lat, lng=excluded.lng`,
		d.ID, d.Name, d.Location.Lat, d.Location.Lng)
	return err
}

// PutReceiver inserts or replaces a receiver.
func (s *SQLiteStore) PutReceiver(ctx context.Context, r model.Receiver) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO receivers (id, name, capacity, lat, lng) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET name=excluded.name, capacity=excluded.capacity, lat=excluded.lat, lng=excluded.lng`,
		r.ID, r.Name, r.Capacity, r.Location.Lat, r.Location.Lng)
	return err
}

// PutDonation inserts or replaces a donation after applying defaults.
func (s *SQLiteStore) PutDonation(ctx context.Context, d model.Donation) error {
	d.SetDefaults()
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := s.Donor(ctx, d.DonorID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO donations (id, donor_id, food_type, quantity, unit, expires_at, status, assigned_receiver, priority_score, priority_model_version, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET donor_id=excluded.donor_id, food_type=excluded.food_type, quantity=excluded.quantity,
             unit=excluded.unit, expires_at=excluded.expires_at, status=excluded.status, assigned_receiver=excluded.assigned_receiver,
             priority_score=excluded.priority_score, priority_model_version=excluded.priority_model_version, created_at=excluded.created_at`,
		d.ID, d.DonorID, d.FoodType, d.Quantity, d.Unit, toNanos(d.ExpiresAt), string(d.Status), d.AssignedReceiver,
		d.PriorityScore, d.PriorityModelVersion, toNanos(d.CreatedAt))
	return err
}

func (s *SQLiteStore) Donor(ctx context.Context, id string) (model.Donor, error) {
	var d model.Donor
	err := s.db.QueryRowContext(ctx, `SELECT id, name, lat, lng FROM donors WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Location.Lat, &d.Location.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Donor{}, model.NewNotFound("donor", id)
	}
	return d, err
}

func (s *SQLiteStore) Receiver(ctx context.Context, id string) (model.Receiver, error) {
	var r model.Receiver
	err := s.db.QueryRowContext(ctx, `SELECT id, name, capacity, lat, lng FROM receivers WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &r.Capacity, &r.Location.Lat, &r.Location.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Receiver{}, model.NewNotFound("receiver", id)
	}
	return r, err
}

const donationColumns = `id, donor_id, food_type, quantity, unit, expires_at, status, assigned_receiver, priority_score, priority_model_version, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDonation(sc scanner) (model.Donation, error) {
	var (
		d                  model.Donation
		status             string
		expires, createdAt int64
	)
	err := sc.Scan(&d.ID, &d.DonorID, &d.FoodType, &d.Quantity, &d.Unit, &expires, &status,
		&d.AssignedReceiver, &d.PriorityScore, &d.PriorityModelVersion, &createdAt)
	d.Status = model.DonationStatus(status)
	d.ExpiresAt = fromNanos(expires)
	d.CreatedAt = fromNanos(createdAt)
	return d, err
}

func (s *SQLiteStore) Donation(ctx context.Context, id string) (model.Donation, error) {
	d, err := scanDonation(s.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Donation{}, model.NewNotFound("donation", id)
	}
	return d, err
}

func (s *SQLiteStore) AvailableDonations(ctx context.Context) ([]model.Donation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE status = ? ORDER BY id`, string(model.DonationAvailable))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []model.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const requestColumns = `id, donation_id, receiver_id, priority_score, model_version, scheduled_at, status, created_at, decided_at`

func scanRequest(sc scanner) (model.PickupRequest, error) {
	var (
		r                           model.PickupRequest
		status                      string
		scheduled, created, decided int64
	)
	err := sc.Scan(&r.ID, &r.DonationID, &r.ReceiverID, &r.PriorityScore, &r.ModelVersion, &scheduled, &status, &created, &decided)
	r.Status = model.RequestStatus(status)
	r.ScheduledAt = fromNanos(scheduled)
	r.CreatedAt = fromNanos(created)
	r.DecidedAt = fromNanos(decided)
	return r, err
}

func (s *SQLiteStore) Request(ctx context.Context, id string) (model.PickupRequest, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM pickup_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PickupRequest{}, model.NewNotFound("pickup request", id)
	}
	return r, err
}

func (s *SQLiteStore) queryRequests(ctx context.Context, where string, args ...any) ([]model.PickupRequest, error) {
	cols := strings.ReplaceAll(requestColumns, ", ", ", r.")
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.`+cols+` FROM pickup_requests r JOIN donations d ON d.id = r.donation_id WHERE `+where+` ORDER BY r.created_at, r.id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []model.PickupRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RequestsForDonation(ctx context.Context, donationID string) ([]model.PickupRequest, error) {
	return s.queryRequests(ctx, `r.donation_id = ?`, donationID)
}

func (s *SQLiteStore) RequestsForReceiver(ctx context.Context, receiverID string) ([]model.PickupRequest, error) {
	return s.queryRequests(ctx, `r.receiver_id = ?`, receiverID)
}

func (s *SQLiteStore) PendingForDonor(ctx context.Context, donorID string) ([]model.PickupRequest, error) {
	return s.queryRequests(ctx, `d.donor_id = ? AND r.status = ?`, donorID, string(model.RequestPending))
}

// CreateRequest inserts req only while its donation is still available, so a
// request cannot land on a donation another process has just reserved.
func (s *SQLiteStore) CreateRequest(ctx context.Context, req model.PickupRequest) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pickup_requests (`+requestColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM donations WHERE id = ? AND status = ?)`,
		req.ID, req.DonationID, req.ReceiverID, req.PriorityScore, req.ModelVersion,
		toNanos(req.ScheduledAt), string(req.Status), toNanos(req.CreatedAt), toNanos(req.DecidedAt),
		req.DonationID, string(model.DonationAvailable))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pickup request %s: %w", req.ID, model.ErrConflict)
		}
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM donations WHERE id = ?`, req.DonationID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewNotFound("donation", req.DonationID)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("donation %s is %s: %w", req.DonationID, status, model.ErrConflict)
}

// isUniqueViolation reports a primary key or unique index collision.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) SetPriority(ctx context.Context, donationID string, score float64, version string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE donations SET priority_score = ?, priority_model_version = ? WHERE id = ?`, score, version, donationID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NewNotFound("donation", donationID)
	}
	return nil
}

// ApplyDecision commits the decision in one transaction.
//
//gocyclo:ignore
func (s *SQLiteStore) ApplyDecision(ctx context.Context, dec allocation.Decision) (rejected []string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	target := dec.Verdict.Target()
	res, err := tx.ExecContext(ctx,
		`UPDATE pickup_requests SET status = ?, decided_at = ? WHERE id = ? AND status = ?`,
		string(target), toNanos(dec.At), dec.RequestID, string(model.RequestPending))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		qerr := tx.QueryRowContext(ctx, `SELECT status FROM pickup_requests WHERE id = ?`, dec.RequestID).Scan(&status)
		if errors.Is(qerr, sql.ErrNoRows) {
			return nil, model.NewNotFound("pickup request", dec.RequestID)
		}
		return nil, fmt.Errorf("pickup request %s is %s: %w", dec.RequestID, status, model.ErrConflict)
	}

	if dec.Verdict == model.DecisionAccept {
		res, err = tx.ExecContext(ctx,
			`UPDATE donations SET status = ?, assigned_receiver = ? WHERE id = ? AND status = ?`,
			string(model.DonationReserved), dec.ReceiverID, dec.DonationID, string(model.DonationAvailable))
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("donation %s is no longer available: %w", dec.DonationID, model.ErrConflict)
			return nil, err
		}
		rejected, err = pendingSiblings(ctx, tx, dec)
		if err != nil {
			return nil, err
		}
		if len(rejected) > 0 {
			if _, err = tx.ExecContext(ctx,
				`UPDATE pickup_requests SET status = ?, decided_at = ? WHERE donation_id = ? AND id <> ? AND status = ?`,
				string(model.RequestRejected), toNanos(dec.At), dec.DonationID, dec.RequestID, string(model.RequestPending)); err != nil {
				return nil, err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return rejected, nil
}

func pendingSiblings(ctx context.Context, tx *sql.Tx, dec allocation.Decision) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM pickup_requests WHERE donation_id = ? AND id <> ? AND status = ? ORDER BY id`,
		dec.DonationID, dec.RequestID, string(model.RequestPending))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) CompleteDonation(ctx context.Context, donationID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE donations SET status = ? WHERE id = ? AND status = ?`,
		string(model.DonationCompleted), donationID, string(model.DonationReserved))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.Donation(ctx, donationID); err != nil {
		return err
	}
	return fmt.Errorf("donation %s is not reserved: %w", donationID, model.ErrConflict)
}
