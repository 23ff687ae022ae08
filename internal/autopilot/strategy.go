package autopilot

import (
	"fmt"

	"github.com/dyluth/warren/internal/rng"
	"github.com/dyluth/warren/pkg/scenario"
)

// Strategy picks option B's share for a screen.
type Strategy interface {
	Allocate(in scenario.Instance) int
}

// StrategyName selects a built-in strategy.
type StrategyName string

const (
	// StrategyConstant puts the same share in B on every screen
	StrategyConstant StrategyName = "constant"

	// StrategyRandom draws a share from a seeded stream
	StrategyRandom StrategyName = "random"

	// StrategyRiskNeutral goes all-in on whichever option has the higher mean
	StrategyRiskNeutral StrategyName = "risk-neutral"
)

// Validate checks if the StrategyName is a valid enum value.
func (n StrategyName) Validate() error {
	switch n {
	case StrategyConstant, StrategyRandom, StrategyRiskNeutral:
		return nil
	default:
		return fmt.Errorf("invalid strategy: %q (must be 'constant', 'random' or 'risk-neutral')", n)
	}
}

// Constant always allocates the same share.
type Constant int

// Allocate returns the constant share.
func (c Constant) Allocate(scenario.Instance) int {
	return min(max(int(c), 0), 100)
}

// Random allocates uniformly in [0, 100].
type Random struct {
	r *rng.Rand
}

// NewRandom seeds the stream from seed, so a rerun gives the same answers.
func NewRandom(seed string) *Random {
	return &Random{r: rng.FromString(seed).Derive("autopilot")}
}

// Allocate draws a share in [0, 100].
func (r *Random) Allocate(scenario.Instance) int {
	return r.r.Intn(101)
}

// RiskNeutral compares option B's expected return with the safe return.
type RiskNeutral struct{}

// Allocate picks the option with the higher expected return.
func (RiskNeutral) Allocate(in scenario.Instance) int {
	mean := in.Up + in.Down
	switch safe := 2 * in.Safe; {
	case mean > safe:
		return 100
	case mean < safe:
		return 0
	default:
		return 50
	}
}

// NewStrategy builds a named strategy. value is used by the constant one and
// seed by the random one.
func NewStrategy(name StrategyName, value int, seed string) (Strategy, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case StrategyRandom:
		return NewRandom(seed), nil
	case StrategyRiskNeutral:
		return RiskNeutral{}, nil
	default:
		return Constant(value), nil
	}
}
