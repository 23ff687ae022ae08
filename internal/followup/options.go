package followup

import "github.com/dyluth/warren/internal/rng"

// Option is one answer choice of the sanity questions.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// OtherKey is the option that requires free text and always stays last.
const OtherKey = "other"

// SanityOptions lists the choices in their canonical order.
var SanityOptions = []Option{
	{Key: "balance", Label: "I wanted to diversify (strike a balance between the two options)."},
	{Key: "dominance", Label: "I saw that one option was better in every possible outcome."},
	{Key: "risk_dislike", Label: "I wanted to avoid losses or low returns."},
	{Key: "higher_return", Label: "I aimed for a higher potential return."},
	{Key: "consistency", Label: "I tried to stay consistent with my earlier answers."},
	{Key: "intuitive", Label: "I relied on intuition or instinct."},
	{Key: OtherKey, Label: "Other (please specify)."},
}

const optionSalt uint32 = 0x9e3779b9

// ShuffledOptions returns the sanity choices for the screen at order. All
// options except "other" are shuffled with a stream seeded from the pool
// seed and the order, so every sanity screen has its own reproducible order.
func ShuffledOptions(poolSeed uint32, order int) []Option {
	var base []Option
	var other Option
	for _, o := range SanityOptions {
		if o.Key == OtherKey {
			other = o
			continue
		}
		base = append(base, o)
	}
	rng.ShuffleInPlace(base, rng.New(poolSeed^uint32(order)^optionSalt))
	return append(base, other)
}

// MidSanityOptions returns the unshuffled choices used at the midpoint.
func MidSanityOptions() []Option {
	return append([]Option(nil), SanityOptions...)
}

// Keys returns the option keys in display order.
func Keys(opts []Option) []string {
	keys := make([]string, len(opts))
	for i, o := range opts {
		keys[i] = o.Key
	}
	return keys
}

func isOption(key string) bool {
	for _, o := range SanityOptions {
		if o.Key == key {
			return true
		}
	}
	return false
}

// Factor is one item of the final rating battery.
type Factor struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Factors lists the final follow-up battery in display order.
var Factors = []Factor{
	{Key: "safe_return_a", Label: "Safe Return from A"},
	{Key: "upside_return_b", Label: "Upside Return from B"},
	{Key: "downside_return_b", Label: "Downside Return from B"},
	{Key: "average_return_b", Label: "Average Return of B"},
	{Key: "spread_b", Label: "Spread (Dispersion) of B"},
	{Key: "inflation", Label: "Inflation"},
	{Key: "risk_attitude", Label: "Attitude toward risk"},
	{Key: "balancing", Label: "Balancing Investments"},
	{Key: "personal_strategy", Label: "Personal Strategy"},
}

// Rating bounds of the battery.
const (
	MinRating = 0
	MaxRating = 5
)
