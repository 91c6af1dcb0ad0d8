package scoring

import (
	"math"

	"github.com/kilianp07/zerowaste/core/model"
)

// Clamp01 bounds a raw model score to [0,1] for display.
func Clamp01(score float64) float64 {
	return math.Min(1, math.Max(0, score))
}

// ExpiryRisk buckets the remaining hours before expiry into a coarse risk.
func ExpiryRisk(hoursLeft float64) float64 {
	switch {
	case hoursLeft < 2:
		return 0.9
	case hoursLeft < 6:
		return 0.5
	default:
		return 0.1
	}
}

// Urgency is a model-free advisory score favouring close receivers and
// donations expiring within a day. Distances under 1 km count as 1 km.
func Urgency(fv model.FeatureVector) float64 {
	return (1 - math.Min(fv.TimeToExpiryHours/24, 1)) * (1 / math.Max(fv.ReceiverDistanceKM, 1))
}
