package scenario

import (
	"fmt"
	"sync"

	"github.com/dyluth/warren/internal/rng"
)

// Grid dimensions.
var (
	SafeValues        = []int{-4, -2, 0, 2, 4}
	RiskPremiumValues = []int{0, 2, 4}
	SpreadValues      = []int{3, 5, 7}
)

// MasterGroupSeed fixes the group partition for every respondent.
const MasterGroupSeed uint32 = 20240901

// GroupSize is the number of specs in each group.
const GroupSize = 13

// Baseline is the canonical reference scenario: safe +2% against 50/50 +5%/-1%.
var Baseline = NewSpec(2, 0, 3)

// IsDominance reports whether the spec is reserved for sanity checks. With
// rp=4 and sd=3 the risky down outcome still beats the safe return.
func IsDominance(s Spec) bool {
	return s.RiskPremium == 4 && s.Spread == 3
}

// Grid returns all 45 grid points in safe, premium, spread order.
func Grid() []Spec {
	out := make([]Spec, 0, len(SafeValues)*len(RiskPremiumValues)*len(SpreadValues))
	for _, s := range SafeValues {
		for _, rp := range RiskPremiumValues {
			for _, sd := range SpreadValues {
				out = append(out, NewSpec(s, rp, sd))
			}
		}
	}
	return out
}

// PoolEligible returns the 39 grid points that may appear as pool items.
func PoolEligible() []Spec {
	var out []Spec
	for _, s := range Grid() {
		if s == Baseline || IsDominance(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Groups maps each group key to its specs.
type Groups map[GroupKey][]Spec

var (
	groupsOnce   sync.Once
	cachedGroups Groups
	groupsErr    error
)

// FixedGroups returns the process-wide partition of the pool into A, B and C.
// The partition is computed on first use and never changes afterwards. The
// returned map is a copy.
func FixedGroups() (Groups, error) {
	groupsOnce.Do(func() {
		cachedGroups, groupsErr = partition(PoolEligible(), MasterGroupSeed)
	})
	if groupsErr != nil {
		return nil, groupsErr
	}
	out := make(Groups, len(cachedGroups))
	for k, specs := range cachedGroups {
		out[k] = append([]Spec(nil), specs...)
	}
	return out, nil
}

// partition shuffles the pool once with seed and splits it into equal groups.
func partition(pool []Spec, seed uint32) (Groups, error) {
	if len(pool) != GroupSize*len(GroupKeys) {
		return nil, fmt.Errorf("pool must hold %d specs, got %d", GroupSize*len(GroupKeys), len(pool))
	}
	shuffled := rng.Shuffle(pool, rng.New(seed))
	groups := make(Groups, len(GroupKeys))
	for i, key := range GroupKeys {
		groups[key] = shuffled[i*GroupSize : (i+1)*GroupSize]
	}
	return groups, nil
}

// SanityBank holds the dominance items used for sanity screens.
var SanityBank = []Spec{
	NewSpec(4, 4, 3),
	NewSpec(0, 4, 3),
	NewSpec(2, 4, 3),
	NewSpec(-2, 4, 3),
}

// FinalFor returns the group's final scenario, which differs from Baseline in
// exactly one aspect: the safe return for A, the risk premium for B and the
// spread for C.
func FinalFor(g GroupKey) Spec {
	switch g {
	case GroupA:
		return NewSpec(-2, 0, 3)
	case GroupB:
		return NewSpec(2, 2, 3)
	default:
		return NewSpec(2, 0, 5)
	}
}
