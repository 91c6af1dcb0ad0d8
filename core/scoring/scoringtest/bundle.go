// Package scoringtest provides a small deterministic artifact bundle for
// tests that need a working scorer.
package scoringtest

import (
	"testing"

	"github.com/kilianp07/zerowaste/core/scoring"
)

// Version is the model version of the bundle returned by Bundle.
const Version = "test-v1"

// Classes are the food types known to the test encoder.
var Classes = []string{"bakery", "dairy", "fruits", "meat", "prepared", "vegetables"}

// Bundle returns a linear bundle favouring large, close receivers and
// donations close to expiry:
//
//	0.5 + 0.004*capacity - 0.01*distance + 0.002*quantity - 0.01*hours
func Bundle(t testing.TB) *scoring.Bundle {
	t.Helper()
	enc, err := scoring.NewLabelEncoder(Classes)
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	sc, err := scoring.NewStandardScaler([]float64{0, 0, 0, 0, 0}, []float64{1, 1, 1, 1, 1})
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}
	lin, err := scoring.NewLinear(0.5, []float64{0.004, -0.01, 0, 0.002, -0.01})
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	b, err := scoring.NewBundle(scoring.BundleOptions{Version: Version, Encoder: enc, Scaler: sc, Model: lin})
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	return b
}

// Scorer wraps Bundle in a scorer.
func Scorer(t testing.TB) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(Bundle(t))
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	return s
}
