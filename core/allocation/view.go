package allocation

import (
	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/scoring"
)

// PickupRequestView is a stored request together with the scoring details
// shown to the receiver.
type PickupRequestView struct {
	Request model.PickupRequest `json:"request"`
	// DisplayScore is the raw score bounded to [0,1].
	DisplayScore float64             `json:"display_score"`
	ExpiryRisk   float64             `json:"expiry_risk"`
	Urgency      float64             `json:"urgency"`
	Features     model.FeatureVector `json:"features"`
}

// ScoredDonation is one entry of a receiver's ranked list of available
// donations. Err is set when this donation could not be scored, e.g. for a
// food type the model has never seen.
type ScoredDonation struct {
	Donation     model.Donation `json:"donation"`
	Score        float64        `json:"score"`
	DisplayScore float64        `json:"display_score"`
	ExpiryRisk   float64        `json:"expiry_risk"`
	Urgency      float64        `json:"urgency"`
	DistanceKM   float64        `json:"distance_km"`
	Err          error          `json:"-"`
}

func newRequestView(req model.PickupRequest, fv model.FeatureVector) PickupRequestView {
	return PickupRequestView{
		Request:      req,
		DisplayScore: scoring.Clamp01(req.PriorityScore),
		ExpiryRisk:   scoring.ExpiryRisk(fv.TimeToExpiryHours),
		Urgency:      scoring.Urgency(fv),
		Features:     fv,
	}
}

