// Package rng provides the deterministic pseudo-random generator used for
// scenario assignment. Streams are mulberry32 generators seeded from integers
// or FNV-1a hashes of strings, so the same seed and the same sequence of draws
// give bit-identical results on every platform.
package rng

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Rand is a mulberry32 stream. It is not safe for concurrent use.
type Rand struct {
	base  uint32
	state uint32
}

// New returns a stream seeded with an integer.
func New(seed uint32) *Rand {
	return &Rand{base: seed, state: seed}
}

// FromString returns a stream for an arbitrary seed string. Integer strings
// use their 32-bit truncation; anything else is hashed.
func FromString(seed string) *Rand {
	s := strings.TrimSpace(seed)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return New(uint32(n))
	}
	return New(HashString(seed))
}

// HashString is 32-bit FNV-1a over UTF-16 code units.
func HashString(s string) uint32 {
	h := uint32(2166136261)
	for _, unit := range utf16.Encode([]rune(s)) {
		h ^= uint32(unit)
		h *= 16777619
	}
	return h
}

// Seed returns the value the stream was created with.
func (r *Rand) Seed() uint32 {
	return r.base
}

// Uint32 advances the stream and returns the next raw 32-bit output.
func (r *Rand) Uint32() uint32 {
	r.state += 0x6D2B79F5
	t := r.state
	x := (t ^ (t >> 15)) * (1 | t)
	x ^= x + (x^(x>>7))*(61|x)
	return x ^ (x >> 14)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive n")
	}
	return int(r.Float64() * float64(n))
}

// Derive returns an independent stream for label. Derivation depends only on
// the parent seed and the label, never on how far the parent has advanced.
func (r *Rand) Derive(label string) *Rand {
	return FromString(strconv.FormatUint(uint64(r.base), 10) + ":" + label)
}

// ShuffleInPlace performs a Fisher-Yates shuffle of items consuming r.
func ShuffleInPlace[T any](items []T, r *Rand) []T {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](items []T, r *Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	return ShuffleInPlace(out, r)
}

// PickOne returns one element of items. items must not be empty.
func PickOne[T any](items []T, r *Rand) T {
	return items[r.Intn(len(items))]
}
