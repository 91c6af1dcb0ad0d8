// Package artifacts loads fitted scoring artifacts from disk.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/scoring"
)

// Model types accepted in the model.type field.
const (
	TypeGBRT   = "gbrt"
	TypeLinear = "linear"
)

// File is the on-disk layout of an artifact bundle.
type File struct {
	ModelVersion string `json:"model_version" yaml:"model_version"`
	ScaledInput  bool   `json:"scaled_input" yaml:"scaled_input"`
	Encoder      struct {
		Classes []string `json:"classes" yaml:"classes"`
	} `json:"encoder" yaml:"encoder"`
	Scaler *struct {
		Mean  []float64 `json:"mean" yaml:"mean"`
		Scale []float64 `json:"scale" yaml:"scale"`
	} `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Model ModelSpec `json:"model" yaml:"model"`
}

// ModelSpec describes the regressor. Gradient-boosted models use Init,
// LearningRate and Trees; linear models use Intercept and Coef.
type ModelSpec struct {
	Type         string         `json:"type" yaml:"type"`
	Init         float64        `json:"init" yaml:"init"`
	LearningRate float64        `json:"learning_rate" yaml:"learning_rate"`
	Trees        []scoring.Tree `json:"trees" yaml:"trees"`
	Intercept    float64        `json:"intercept" yaml:"intercept"`
	Coef         []float64      `json:"coef" yaml:"coef"`
}

// Load reads a JSON or YAML artifact file, chosen by extension, and builds
// the bundle. Every failure wraps model.ErrScoringUnavailable.
func Load(path string) (*scoring.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifacts: %v", model.ErrScoringUnavailable, err)
	}
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	default:
		return nil, fmt.Errorf("%w: unsupported artifact format %q", model.ErrScoringUnavailable, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", model.ErrScoringUnavailable, path, err)
	}
	return f.Bundle()
}

// Bundle validates the decoded file and assembles the scoring bundle.
func (f File) Bundle() (*scoring.Bundle, error) {
	enc, err := scoring.NewLabelEncoder(f.Encoder.Classes)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder: %v", model.ErrScoringUnavailable, err)
	}
	var sc *scoring.StandardScaler
	if f.Scaler != nil {
		sc, err = scoring.NewStandardScaler(f.Scaler.Mean, f.Scaler.Scale)
		if err != nil {
			return nil, fmt.Errorf("%w: scaler: %v", model.ErrScoringUnavailable, err)
		}
	}
	reg, err := f.Model.regressor()
	if err != nil {
		return nil, fmt.Errorf("%w: model: %v", model.ErrScoringUnavailable, err)
	}
	return scoring.NewBundle(scoring.BundleOptions{
		Version:     f.ModelVersion,
		Encoder:     enc,
		Scaler:      sc,
		Model:       reg,
		ScaledInput: f.ScaledInput,
	})
}

func (m ModelSpec) regressor() (scoring.Regressor, error) {
	switch m.Type {
	case TypeGBRT:
		return scoring.NewTreeEnsemble(m.Init, m.LearningRate, len(model.FeatureNames), m.Trees)
	case TypeLinear:
		return scoring.NewLinear(m.Intercept, m.Coef)
	case "":
		return nil, fmt.Errorf("model type is required")
	default:
		return nil, fmt.Errorf("unknown model type %q", m.Type)
	}
}
