package scoring

import (
	"fmt"
	"sort"

	"github.com/kilianp07/zerowaste/core/model"
)

// LabelEncoder maps food type labels to the integer codes used at training
// time. Codes are indexes into the sorted class list.
type LabelEncoder struct {
	classes []string
}

// NewLabelEncoder builds an encoder from the fitted classes. Duplicates are
// removed and the classes are sorted.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder: no classes")
	}
	cp := make([]string, 0, len(classes))
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("label encoder: empty class")
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		cp = append(cp, c)
	}
	sort.Strings(cp)
	return &LabelEncoder{classes: cp}, nil
}

// Encode returns the code of label or an UnknownCategoryError.
func (e *LabelEncoder) Encode(label string) (float64, error) {
	i := sort.SearchStrings(e.classes, label)
	if i == len(e.classes) || e.classes[i] != label {
		return 0, &model.UnknownCategoryError{Label: label}
	}
	return float64(i), nil
}

// Classes returns a copy of the fitted classes in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}
