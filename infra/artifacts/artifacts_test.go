package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/scoring"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadYAMLTreeEnsemble(t *testing.T) {
	b, err := Load("testdata/gbrt.yaml")
	require.NoError(t, err)
	assert.Equal(t, "gbrt-2024-06", b.Version())
	assert.Equal(t, []string{"bakery", "dairy", "fruits", "meat", "prepared", "vegetables"}, b.Encoder().Classes())

	s, err := scoring.NewScorer(b)
	require.NoError(t, err)
	// close receiver, two hours left, capacity 50, 20 kg:
	// 0.42 + 0.1*(1.2 + 1.5 + 0.4)
	score, err := s.Score(model.FeatureVector{
		ReceiverCapacity:   50,
		ReceiverDistanceKM: 2,
		FoodTypeEncoded:    5,
		Quantity:           20,
		TimeToExpiryHours:  2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.73, score, 1e-9)
}

func TestLoadJSONLinear(t *testing.T) {
	b, err := Load("testdata/linear.json")
	require.NoError(t, err)
	assert.Equal(t, "linear-1", b.Version())

	s, err := scoring.NewScorer(b)
	require.NoError(t, err)
	score, err := s.Score(model.FeatureVector{ReceiverCapacity: 50, ReceiverDistanceKM: 2, FoodTypeEncoded: 0, Quantity: 20, TimeToExpiryHours: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.69, score, 1e-9)
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]string{
		"missing file": filepath.Join(t.TempDir(), "nope.yaml"),
		"extension":    writeFile(t, "model.toml", "model_version = 1"),
		"unknown field": writeFile(t, "model.json",
			`{"model_version":"x","encoder":{"classes":["a"]},"model":{"type":"linear","coef":[1,1,1,1,1]},"extra":1}`),
		"no version": writeFile(t, "model.yaml", "encoder: {classes: [a]}\nmodel: {type: linear, coef: [1,1,1,1,1]}\n"),
		"no type":    writeFile(t, "model.yaml", "model_version: x\nencoder: {classes: [a]}\nmodel: {coef: [1,1,1,1,1]}\n"),
		"bad type":   writeFile(t, "model.yaml", "model_version: x\nencoder: {classes: [a]}\nmodel: {type: svm}\n"),
		"width":      writeFile(t, "model.yaml", "model_version: x\nencoder: {classes: [a]}\nmodel: {type: linear, coef: [1,1,1]}\n"),
		"no classes": writeFile(t, "model.yaml", "model_version: x\nmodel: {type: linear, coef: [1,1,1,1,1]}\n"),
		"scaled without scaler": writeFile(t, "model.yaml",
			"model_version: x\nscaled_input: true\nencoder: {classes: [a]}\nmodel: {type: linear, coef: [1,1,1,1,1]}\n"),
		"bad tree": writeFile(t, "model.yaml",
			"model_version: x\nencoder: {classes: [a]}\nmodel: {type: gbrt, learning_rate: 0.1, trees: [{nodes: [{feature: 9, left: 1, right: 2}]}]}\n"),
		"corrupt": writeFile(t, "model.json", `{"model_version": `),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrScoringUnavailable)
		})
	}
}
