package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StandardScaler standardizes features with the mean and scale fitted at
// training time.
type StandardScaler struct {
	mean  *mat.VecDense
	scale *mat.VecDense
}

// NewStandardScaler validates the fitted vectors. A zero scale is replaced
// by 1 so constant features pass through centred.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler: mean has %d values, scale has %d", len(mean), len(scale))
	}
	sc := make([]float64, len(scale))
	for i, s := range scale {
		if s == 0 {
			s = 1
		}
		sc[i] = s
	}
	return &StandardScaler{
		mean:  mat.NewVecDense(len(mean), append([]float64(nil), mean...)),
		scale: mat.NewVecDense(len(sc), sc),
	}, nil
}

// Len returns the number of features the scaler was fitted on.
func (s *StandardScaler) Len() int { return s.mean.Len() }

// Transform returns (x - mean) / scale without modifying x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.Len() {
		return nil, fmt.Errorf("scaler: expected %d features, got %d", s.Len(), len(x))
	}
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	v.SubVec(v, s.mean)
	v.DivElemVec(v, s.scale)
	return v.RawVector().Data, nil
}
