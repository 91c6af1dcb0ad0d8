package scoring

import (
	"fmt"

	"github.com/kilianp07/zerowaste/core/model"
)

// Bundle groups the fitted artifacts under one model version. It is
// immutable once built.
type Bundle struct {
	version     string
	encoder     *LabelEncoder
	scaler      *StandardScaler
	model       Regressor
	scaledInput bool
}

// BundleOptions carries the artifacts passed to NewBundle.
type BundleOptions struct {
	Version string
	Encoder *LabelEncoder
	Scaler  *StandardScaler
	Model   Regressor
	// ScaledInput applies the scaler before prediction. Models trained on raw
	// features leave it false and the scaler is only carried along.
	ScaledInput bool
}

// NewBundle checks that the artifacts agree on the feature layout. Every
// failure wraps model.ErrScoringUnavailable.
func NewBundle(opts BundleOptions) (*Bundle, error) {
	if opts.Version == "" {
		return nil, fmt.Errorf("%w: model version is required", model.ErrScoringUnavailable)
	}
	if opts.Encoder == nil {
		return nil, fmt.Errorf("%w: missing food type encoder", model.ErrScoringUnavailable)
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("%w: missing regression model", model.ErrScoringUnavailable)
	}
	width := len(model.FeatureNames)
	if n := opts.Model.NumFeatures(); n != width {
		return nil, fmt.Errorf("%w: model expects %d features, have %d", model.ErrScoringUnavailable, n, width)
	}
	if opts.Scaler != nil && opts.Scaler.Len() != width {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, have %d", model.ErrScoringUnavailable, opts.Scaler.Len(), width)
	}
	if opts.ScaledInput && opts.Scaler == nil {
		return nil, fmt.Errorf("%w: scaled input requires a scaler", model.ErrScoringUnavailable)
	}
	return &Bundle{
		version:     opts.Version,
		encoder:     opts.Encoder,
		scaler:      opts.Scaler,
		model:       opts.Model,
		scaledInput: opts.ScaledInput,
	}, nil
}

// Version returns the model version recorded next to every score.
func (b *Bundle) Version() string { return b.version }

// Encoder returns the fitted food type encoder.
func (b *Bundle) Encoder() *LabelEncoder { return b.encoder }
