package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/zerowaste/core/model"
)

// Seeder accepts donors, receivers and donations. Both stores implement it.
type Seeder interface {
	PutDonor(ctx context.Context, d model.Donor) error
	PutReceiver(ctx context.Context, r model.Receiver) error
	PutDonation(ctx context.Context, d model.Donation) error
}

// Fixtures is a YAML seed file.
type Fixtures struct {
	Donors    []model.Donor     `yaml:"donors"`
	Receivers []model.Receiver  `yaml:"receivers"`
	Donations []FixtureDonation `yaml:"donations"`
}

// FixtureDonation is a donation whose expiry may be given relative to the
// seeding time with expires_in instead of an absolute expires_at.
type FixtureDonation struct {
	model.Donation `yaml:",inline"`
	ExpiresIn      time.Duration `yaml:"expires_in"`
}

// LoadFixtures decodes the seed file at path. Unknown keys are rejected.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures %s: %w", path, err)
	}
	return &f, nil
}

// Seed writes the fixtures into s. Donors go first so donations find their
// owner. Relative expiries and missing creation times are resolved against now.
func (f *Fixtures) Seed(ctx context.Context, s Seeder, now time.Time) error {
	for _, d := range f.Donors {
		if err := s.PutDonor(ctx, d); err != nil {
			return fmt.Errorf("seed donor %s: %w", d.ID, err)
		}
	}
	for _, r := range f.Receivers {
		if err := s.PutReceiver(ctx, r); err != nil {
			return fmt.Errorf("seed receiver %s: %w", r.ID, err)
		}
	}
	for _, fd := range f.Donations {
		d := fd.Donation
		if d.ExpiresAt.IsZero() {
			if fd.ExpiresIn == 0 {
				return fmt.Errorf("seed donation %s: expires_at or expires_in is required", d.ID)
			}
			d.ExpiresAt = now.Add(fd.ExpiresIn)
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if err := s.PutDonation(ctx, d); err != nil {
			return fmt.Errorf("seed donation %s: %w", d.ID, err)
		}
	}
	return nil
}
