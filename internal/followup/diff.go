package followup

import (
	"math"

	"github.com/dyluth/warren/pkg/scenario"
)

const diffEpsilon = 1e-9

// GenericDiffMessage is shown when zero or several aspects changed.
const GenericDiffMessage = "Everything in this question was the same as the first question except that exactly one aspect changed."

// Single-aspect labels.
const (
	LabelSafe   = "The safe return."
	LabelMean   = "Option B's average return."
	LabelSpread = "Option B's spread(risk)."
)

// DiffLabel names the single aspect in which final differs from baseline:
// the safe return, option B's mean, or option B's spread. It reports false
// unless exactly one of them changed.
func DiffLabel(baseline, final scenario.Spec) (string, bool) {
	safeChanged := changed(float64(final.Safe), float64(baseline.Safe))
	meanChanged := changed(meanOf(final), meanOf(baseline))
	spreadChanged := changed(spreadOf(final), spreadOf(baseline))

	count := 0
	for _, c := range []bool{safeChanged, meanChanged, spreadChanged} {
		if c {
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	switch {
	case safeChanged:
		return LabelSafe, true
	case meanChanged:
		return LabelMean, true
	default:
		return LabelSpread, true
	}
}

// DiffMessage is the sentence shown above the final comparison question.
func DiffMessage(baseline, final scenario.Spec) string {
	label, ok := DiffLabel(baseline, final)
	if !ok {
		return GenericDiffMessage
	}
	return "Everything in this question was the same as the first question except: " +
		label[:len(label)-1] + "."
}

func meanOf(s scenario.Spec) float64 {
	p := s.Probability
	return p*float64(s.Up()) + (1-p)*float64(s.Down())
}

func spreadOf(s scenario.Spec) float64 {
	return math.Abs(float64(s.Up() - s.Down()))
}

func changed(a, b float64) bool {
	return math.Abs(a-b) > diffEpsilon
}

// Comparison summarizes how the risky share moved between the first
// baseline and the last scenario.
type Comparison struct {
	CanCompare bool   `json:"can_compare"`
	Changed    bool   `json:"changed"`
	Delta      int    `json:"delta"` // positive means toward B
	Toward     string `json:"toward,omitempty"`
}

// Compare builds the comparison; nil shares mean the row is missing.
func Compare(firstPctB, lastPctB *int) Comparison {
	if firstPctB == nil || lastPctB == nil {
		return Comparison{}
	}
	delta := *lastPctB - *firstPctB
	c := Comparison{CanCompare: true, Changed: delta != 0, Delta: delta}
	switch {
	case delta > 0:
		c.Toward = "B (risky)"
	case delta < 0:
		c.Toward = "A (safe)"
	}
	return c
}
