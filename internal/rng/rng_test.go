package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat64GoldenSequence(t *testing.T) {
	r := New(12345)
	assert.InDelta(t, 0.9797282677609473, r.Float64(), 1e-15)
	assert.InDelta(t, 0.3067522644996643, r.Float64(), 1e-15)
	assert.InDelta(t, 0.484205421525985, r.Float64(), 1e-15)

	master := New(20240901)
	assert.InDelta(t, 0.5653102998621762, master.Float64(), 1e-15)
	assert.InDelta(t, 0.5475991819985211, master.Float64(), 1e-15)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, uint32(1335831723), HashString("hello"))
	assert.Equal(t, uint32(1935287149), HashString("12345:B1.order"))
	assert.Equal(t, uint32(2166136261), HashString(""))
}

func TestFromString(t *testing.T) {
	t.Run("integer strings seed directly", func(t *testing.T) {
		assert.Equal(t, uint32(12345), FromString("12345").Seed())
		assert.Equal(t, uint32(12345), FromString(" 12345 ").Seed())
	})

	t.Run("negative integers wrap", func(t *testing.T) {
		assert.Equal(t, uint32(4294967295), FromString("-1").Seed())
	})

	t.Run("other strings hash", func(t *testing.T) {
		assert.Equal(t, HashString("respondent-7"), FromString("respondent-7").Seed())
	})
}

func TestDerive(t *testing.T) {
	parent := New(12345)
	a := parent.Derive("B1.order")
	assert.Equal(t, uint32(1935287149), a.Seed())

	// advancing the parent does not change derived streams
	parent.Float64()
	parent.Float64()
	b := parent.Derive("B1.order")
	assert.Equal(t, a.Seed(), b.Seed())

	c := parent.Derive("B2.order")
	assert.NotEqual(t, a.Seed(), c.Seed())
}

func TestFloat64Range(t *testing.T) {
	r := FromString("range-check")
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestShuffle(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	t.Run("copy leaves input untouched", func(t *testing.T) {
		out := Shuffle(items, New(7))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, items)
		assert.ElementsMatch(t, items, out)
	})

	t.Run("same seed same order", func(t *testing.T) {
		assert.Equal(t, Shuffle(items, New(99)), Shuffle(items, New(99)))
	})

	t.Run("different seeds usually differ", func(t *testing.T) {
		assert.NotEqual(t, Shuffle(items, New(1)), Shuffle(items, New(2)))
	})

	t.Run("empty and single", func(t *testing.T) {
		assert.Empty(t, Shuffle([]int{}, New(1)))
		assert.Equal(t, []int{4}, Shuffle([]int{4}, New(1)))
	})
}

func TestPickOne(t *testing.T) {
	keys := []string{"A", "B", "C"}
	seen := map[string]bool{}
	r := New(3)
	for i := 0; i < 200; i++ {
		seen[PickOne(keys, r)] = true
	}
	assert.Len(t, seen, 3)
}

func TestIntnPanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { New(1).Intn(0) })
}
