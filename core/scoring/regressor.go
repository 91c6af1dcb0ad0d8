package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Regressor predicts a single value from a feature slice.
type Regressor interface {
	Predict(x []float64) float64
	// NumFeatures is the input width the regressor was fitted on.
	NumFeatures() int
}

// Node is one node of a regression tree. Samples with x[Feature] <= Threshold
// go to Left, the others to Right. Leaves carry Value.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Feature   int     `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Left      int     `json:"left,omitempty" yaml:"left,omitempty"`
	Right     int     `json:"right,omitempty" yaml:"right,omitempty"`
}

// Tree is a flattened regression tree rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

func (t Tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// children always point forward so evaluation terminates
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// TreeEnsemble is a gradient-boosted regression tree model:
// Init + LearningRate * sum(tree(x)).
type TreeEnsemble struct {
	init         float64
	learningRate float64
	trees        []Tree
	features     int
}

// NewTreeEnsemble validates every tree against the input width.
func NewTreeEnsemble(init, learningRate float64, features int, trees []Tree) (*TreeEnsemble, error) {
	if features <= 0 {
		return nil, fmt.Errorf("tree ensemble: invalid feature count %d", features)
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("tree ensemble: learning rate must be positive")
	}
	for i, t := range trees {
		if err := t.validate(features); err != nil {
			return nil, fmt.Errorf("tree ensemble: tree %d: %w", i, err)
		}
	}
	return &TreeEnsemble{init: init, learningRate: learningRate, trees: trees, features: features}, nil
}

// Predict implements Regressor.
func (m *TreeEnsemble) Predict(x []float64) float64 {
	sum := 0.0
	for _, t := range m.trees {
		sum += t.eval(x)
	}
	return m.init + m.learningRate*sum
}

// NumFeatures implements Regressor.
func (m *TreeEnsemble) NumFeatures() int { return m.features }

// Linear is an ordinary least squares model.
type Linear struct {
	intercept float64
	coef      *mat.VecDense
}

// NewLinear builds a linear model from its fitted coefficients.
func NewLinear(intercept float64, coef []float64) (*Linear, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("linear: no coefficients")
	}
	return &Linear{intercept: intercept, coef: mat.NewVecDense(len(coef), append([]float64(nil), coef...))}, nil
}

// Predict implements Regressor.
func (m *Linear) Predict(x []float64) float64 {
	return m.intercept + mat.Dot(m.coef, mat.NewVecDense(len(x), x))
}

// NumFeatures implements Regressor.
func (m *Linear) NumFeatures() int { return m.coef.Len() }
