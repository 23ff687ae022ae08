package scenario

import (
	"errors"
	"fmt"

	"github.com/dyluth/warren/internal/rng"
)

// Flow shape.
const (
	FirstSubBlock = 6
	BlockLen      = 1 + GroupSize + 1 // baseline, the group's items, one sanity
	FlowLen       = 2*BlockLen + 2    // two blocks, then LAST and MIRROR
)

// ErrEmptyFlow is returned when construction produced no screens.
var ErrEmptyFlow = errors.New("scenario construction produced no screens")

// Options tunes flow construction. Zero values select the seeded defaults.
type Options struct {
	GroupKey   GroupKey   // Empty picks a group from the seed
	BlockOrder BlockOrder // Zero value picks an order from the seed
	StorageTag Tag        // Tag stored on pool items; defaults to POOL
}

// Build assembles the 32-screen flow for a respondent:
//
//	Block 1 (pi1): BASE -> 6 pool -> SANITY -> 7 pool
//	Block 2 (pi2): BASE -> 6 pool -> SANITY -> 7 pool (same items, new order)
//	LAST (pi2) -> MIRROR (pi1)
//
// The same seed and options always produce the same flow.
func Build(seed string, opts Options) (*Flow, error) {
	root := rng.FromString(seed)

	groups, err := FixedGroups()
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	key := opts.GroupKey
	if key == "" {
		key = rng.PickOne(GroupKeys, root.Derive("group"))
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	items := groups[key]
	if len(items) != GroupSize {
		return nil, fmt.Errorf("group %s must have %d items, got %d", key, GroupSize, len(items))
	}

	order := opts.BlockOrder
	if order == (BlockOrder{}) {
		if root.Derive("block.order").Float64() < 0.5 {
			order = OrderLowFirst
		} else {
			order = OrderHighFirst
		}
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	tag := opts.StorageTag
	if tag == "" {
		tag = TagPool
	}
	if err := tag.ValidatePoolTag(); err != nil {
		return nil, err
	}

	sanityPick := root.Derive("sanity").Intn(len(SanityBank))
	sanity := [2]Spec{
		SanityBank[sanityPick],
		SanityBank[(sanityPick+1)%len(SanityBank)],
	}

	b := &builder{poolTag: tag}
	for i, label := range []string{"B1.order", "B2.order"} {
		shuffled := rng.Shuffle(items, root.Derive(label))
		b.block(i+1, order[i], shuffled, sanity[i])
	}

	final := FinalFor(key)
	b.add(final, 2, order[1], TagLast, func(in *Instance) { in.IsLast = true })
	b.add(final, 2, order[0], TagMirror, func(in *Instance) {
		in.IsLast = true
		in.IsMirror = true
	})

	if len(b.items) == 0 {
		return nil, ErrEmptyFlow
	}

	return &Flow{
		Meta: Meta{
			Seed:       seed,
			GroupKey:   key,
			BlockOrder: order,
			StorageTag: tag,
		},
		Items: b.items,
	}, nil
}

// BuildOrFallback builds the flow and, if construction fails, returns the
// single synthetic baseline flow together with the error so the caller can
// report the degraded mode.
func BuildOrFallback(seed string, opts Options) (*Flow, error) {
	flow, err := Build(seed, opts)
	if err == nil {
		return flow, nil
	}
	return FallbackFlow(seed), err
}

// FallbackFlow is the one-screen flow used when construction fails.
func FallbackFlow(seed string) *Flow {
	return &Flow{
		Meta: Meta{Seed: seed, StorageTag: TagPool, Fallback: true},
		Items: []Instance{{
			ID:          "FALLBACK_BASE",
			Order:       1,
			Tag:         TagBase,
			Block:       1,
			Inflation:   InflationNone,
			Safe:        Baseline.Safe,
			RiskPremium: Baseline.RiskPremium,
			Spread:      Baseline.Spread,
			Up:          Baseline.Up(),
			Down:        Baseline.Down(),
			Probability: Baseline.Probability,
			IsBaseline:  true,
		}},
	}
}

type builder struct {
	poolTag Tag
	items   []Instance
}

func (b *builder) block(block, inflation int, items []Spec, sanity Spec) {
	b.add(Baseline, block, inflation, TagBase, func(in *Instance) { in.IsBaseline = true })
	for _, s := range items[:FirstSubBlock] {
		b.add(s, block, inflation, b.poolTag, nil)
	}
	b.add(sanity, block, inflation, TagSanity, func(in *Instance) { in.IsSanity = true })
	for _, s := range items[FirstSubBlock:] {
		b.add(s, block, inflation, b.poolTag, nil)
	}
}

func (b *builder) add(s Spec, block, inflation int, tag Tag, flags func(*Instance)) {
	order := len(b.items) + 1
	in := Instance{
		ID:          fmt.Sprintf("SCN_%03d", order),
		Order:       order,
		Tag:         tag,
		Block:       block,
		Inflation:   inflation,
		Safe:        s.Safe,
		RiskPremium: s.RiskPremium,
		Spread:      s.Spread,
		Up:          s.Up(),
		Down:        s.Down(),
		Probability: 0.5,
	}
	if flags != nil {
		flags(&in)
	}
	b.items = append(b.items, in)
}
