// Package scenario defines the financial scenarios shown to respondents and
// builds each respondent's ordered flow of decision screens.
//
// A Spec is one point of the fixed design grid: a safe return and a 50/50
// risky option described by a risk premium and a spread. The 39 pool-eligible
// specs are partitioned once per process into groups A, B and C from a fixed
// master seed. A Flow places specs into a respondent-specific sequence of
// Instances with tags, inflation assumptions and 1-based orders.
package scenario

import "fmt"

// Spec is an immutable description of one decision's financial parameters.
// All values are percentages.
type Spec struct {
	Safe        int     `json:"s"`  // Fixed return of option A
	RiskPremium int     `json:"rp"` // Shift of option B's mean over Safe
	Spread      int     `json:"sd"` // Dispersion of option B around its mean
	Probability float64 `json:"p"`  // Probability of the up outcome (always 0.5)
}

// NewSpec returns a Spec with the fixed 50/50 probability.
func NewSpec(safe, riskPremium, spread int) Spec {
	return Spec{Safe: safe, RiskPremium: riskPremium, Spread: spread, Probability: 0.5}
}

// Mean is option B's mean return.
func (s Spec) Mean() int {
	return s.Safe + s.RiskPremium
}

// Up is option B's favourable outcome.
func (s Spec) Up() int {
	return s.Mean() + s.Spread
}

// Down is option B's unfavourable outcome.
func (s Spec) Down() int {
	return s.Mean() - s.Spread
}

// Validate checks the spec describes a genuinely risky option B.
func (s Spec) Validate() error {
	if s.Spread <= 0 {
		return fmt.Errorf("spread must be positive, got %d", s.Spread)
	}
	if s.Probability != 0.5 {
		return fmt.Errorf("probability must be 0.5, got %v", s.Probability)
	}
	return nil
}

// String renders the spec as safe/up/down.
func (s Spec) String() string {
	return fmt.Sprintf("safe=%+d%% up=%+d%% down=%+d%%", s.Safe, s.Up(), s.Down())
}

// GroupKey names one of the three fixed partitions of the pool.
type GroupKey string

const (
	GroupA GroupKey = "A"
	GroupB GroupKey = "B"
	GroupC GroupKey = "C"
)

// GroupKeys lists the groups in their canonical order.
var GroupKeys = []GroupKey{GroupA, GroupB, GroupC}

// Validate checks if the GroupKey is a valid enum value.
func (g GroupKey) Validate() error {
	switch g {
	case GroupA, GroupB, GroupC:
		return nil
	default:
		return fmt.Errorf("unknown group: %q", g)
	}
}

// Tag identifies the role a screen plays in the flow.
type Tag string

const (
	// TagBase is the canonical baseline opening each block
	TagBase Tag = "BASE"

	// TagPool is the default tag for items drawn from the respondent's group
	TagPool Tag = "POOL"

	// TagSanity is a dominance check
	TagSanity Tag = "SANITY"

	// TagLast is the group-specific final scenario under the second block's inflation
	TagLast Tag = "LAST"

	// TagMirror repeats the final scenario under the first block's inflation
	TagMirror Tag = "MIRROR"
)

// ValidatePoolTag rejects tags that would collide with a structural role.
func (t Tag) ValidatePoolTag() error {
	switch t {
	case TagBase, TagSanity, TagLast, TagMirror:
		return fmt.Errorf("pool tag %q is reserved", t)
	}
	return nil
}

// Inflation assumptions, in percent. They frame the decision but never alter
// the outcomes.
const (
	InflationNone = 0
	InflationHigh = 6
)

// BlockOrder is the pair of inflation assumptions for block 1 and block 2.
type BlockOrder [2]int

var (
	OrderLowFirst  = BlockOrder{InflationNone, InflationHigh}
	OrderHighFirst = BlockOrder{InflationHigh, InflationNone}
)

// Validate accepts only the two permutations of {0, 6}.
func (o BlockOrder) Validate() error {
	if o == OrderLowFirst || o == OrderHighFirst {
		return nil
	}
	return fmt.Errorf("invalid block order %v: must be [0 6] or [6 0]", [2]int(o))
}

// Instance is a Spec placed into a respondent's flow. Instances are created
// once by the builder and never mutated.
type Instance struct {
	ID          string  `json:"id"`    // Sequential token, SCN_001...
	Order       int     `json:"order"` // 1-based position in the flow
	Tag         Tag     `json:"tag"`
	Block       int     `json:"block"` // 1 or 2
	Inflation   int     `json:"pi"`    // 0 or 6
	Safe        int     `json:"s"`
	RiskPremium int     `json:"rp"`
	Spread      int     `json:"sd"`
	Up          int     `json:"u"`
	Down        int     `json:"d"`
	Probability float64 `json:"p"`
	IsBaseline  bool    `json:"is_baseline"`
	IsSanity    bool    `json:"is_sanity"`
	IsLast      bool    `json:"is_last"`
	IsMirror    bool    `json:"is_mirror"`
}

// Spec returns the financial parameters of the instance.
func (in Instance) Spec() Spec {
	return Spec{Safe: in.Safe, RiskPremium: in.RiskPremium, Spread: in.Spread, Probability: in.Probability}
}

// IsFinalMirror reports whether this is the closing screen that triggers the
// final follow-up.
func (in Instance) IsFinalMirror() bool {
	return in.IsLast && in.IsMirror
}

// Meta records how a flow was assembled.
type Meta struct {
	Seed       string     `json:"seed"`
	GroupKey   GroupKey   `json:"group"`
	BlockOrder BlockOrder `json:"block_order"`
	StorageTag Tag        `json:"storage_tag"`
	Fallback   bool       `json:"fallback,omitempty"`
}

// Flow is one respondent's ordered list of screens.
type Flow struct {
	Meta  Meta       `json:"meta"`
	Items []Instance `json:"items"`
}

// Len returns the number of screens.
func (f *Flow) Len() int {
	return len(f.Items)
}

// At returns the screen at a 0-based index.
func (f *Flow) At(index int) (Instance, bool) {
	if index < 0 || index >= len(f.Items) {
		return Instance{}, false
	}
	return f.Items[index], true
}
