package scoring

import (
	"fmt"
	"math"

	"github.com/kilianp07/zerowaste/core/model"
)

// Scorer computes priority scores from feature vectors. It is safe for
// concurrent use.
type Scorer struct {
	bundle *Bundle
}

// NewScorer returns a scorer backed by the bundle. A nil bundle means the
// artifacts failed to load and yields model.ErrScoringUnavailable.
func NewScorer(b *Bundle) (*Scorer, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: no artifact bundle", model.ErrScoringUnavailable)
	}
	return &Scorer{bundle: b}, nil
}

// Score returns the model prediction for fv. The value is nominally in
// [0,1] but is not clamped; use Clamp01 for display.
func (s *Scorer) Score(fv model.FeatureVector) (float64, error) {
	if s == nil || s.bundle == nil {
		return 0, model.ErrScoringUnavailable
	}
	x := fv.Slice()
	if s.bundle.scaledInput {
		scaled, err := s.bundle.scaler.Transform(x)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", model.ErrScoringUnavailable, err)
		}
		x = scaled
	}
	out := s.bundle.model.Predict(x)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: model returned %v", model.ErrScoringUnavailable, out)
	}
	return out, nil
}

// Encoder returns the fitted food type encoder used to build features.
func (s *Scorer) Encoder() *LabelEncoder {
	if s == nil || s.bundle == nil {
		return nil
	}
	return s.bundle.encoder
}

// Version returns the model version of the loaded bundle.
func (s *Scorer) Version() string {
	if s == nil || s.bundle == nil {
		return ""
	}
	return s.bundle.version
}
