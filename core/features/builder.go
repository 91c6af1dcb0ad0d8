// Package features derives the model input for a donation/receiver pair.
package features

import (
	"fmt"
	"time"

	"github.com/kilianp07/zerowaste/core/model"
)

// Encoder maps a food type label to its fitted numeric code.
type Encoder interface {
	Encode(label string) (float64, error)
}

// Builder assembles feature vectors. It holds no state besides the encoder
// and is safe for concurrent use.
type Builder struct {
	encoder Encoder
}

// NewBuilder returns a Builder using enc for the food type column.
func NewBuilder(enc Encoder) (*Builder, error) {
	if enc == nil {
		return nil, fmt.Errorf("features: nil encoder")
	}
	return &Builder{encoder: enc}, nil
}

// Build computes the features for collecting donation, posted by donor, at
// receiver at instant now. Unknown food types fail with
// model.UnknownCategoryError.
func (b *Builder) Build(donor model.Donor, donation model.Donation, receiver model.Receiver, now time.Time) (model.FeatureVector, error) {
	code, err := b.encoder.Encode(donation.FoodType)
	if err != nil {
		return model.FeatureVector{}, err
	}
	return model.FeatureVector{
		ReceiverCapacity:   float64(receiver.Capacity),
		ReceiverDistanceKM: donor.Location.DistanceTo(receiver.Location),
		FoodTypeEncoded:    code,
		Quantity:           donation.Quantity,
		TimeToExpiryHours:  donation.TimeToExpiry(now).Hours(),
	}, nil
}
