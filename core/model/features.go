package model

// FeatureVector is the model input derived for one donation/receiver pair at
// one instant. It is never cached.
type FeatureVector struct {
	ReceiverCapacity   float64 `json:"receiver_capacity"`
	ReceiverDistanceKM float64 `json:"receiver_distance"`
	FoodTypeEncoded    float64 `json:"food_type_encoded"`
	Quantity           float64 `json:"quantity"`
	TimeToExpiryHours  float64 `json:"time_to_expiry"`
}

// FeatureNames lists the columns in the order the model was trained on.
var FeatureNames = []string{
	"receiver_capacity",
	"receiver_distance",
	"food_type_encoded",
	"quantity",
	"time_to_expiry",
}

// Slice returns the features in training order.
func (f FeatureVector) Slice() []float64 {
	return []float64{
		f.ReceiverCapacity,
		f.ReceiverDistanceKM,
		f.FoodTypeEncoded,
		f.Quantity,
		f.TimeToExpiryHours,
	}
}
