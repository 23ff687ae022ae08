package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGates(t *testing.T) {
	s := New(DefaultValue)

	assert.Equal(t, 50, s.Value())
	assert.True(t, s.ControlsLocked())
	assert.True(t, s.ConfirmDisabled())
	assert.ErrorIs(t, s.SetValue(70), ErrNotUnlocked)
	assert.ErrorIs(t, s.CanConfirm(), ErrNotUnlocked)

	s.Unlock()
	assert.False(t, s.ControlsLocked())
	assert.True(t, s.ConfirmDisabled(), "confirm needs a touch")
	assert.ErrorIs(t, s.CanConfirm(), ErrNotTouched)

	// leaving the default in place still counts once the control is used
	require.NoError(t, s.SetValue(50))
	assert.False(t, s.ConfirmDisabled())
	assert.NoError(t, s.CanConfirm())

	s.MarkConfirmed()
	assert.True(t, s.ControlsLocked())
	assert.ErrorIs(t, s.SetValue(10), ErrReadOnly)
	assert.Equal(t, 50, s.Value())
}

func TestModalitiesStayConsistent(t *testing.T) {
	s := New(DefaultValue)
	s.Unlock()

	require.NoError(t, s.SetAPercent(30))
	assert.Equal(t, 70, s.Value())
	assert.Equal(t, 70, s.BPercent())
	assert.Equal(t, 30, s.APercent())

	require.NoError(t, s.SetBPercent(12.6))
	assert.Equal(t, 13, s.BPercent())
	assert.Equal(t, 87, s.APercent())

	require.NoError(t, s.Drag(0.25))
	assert.Equal(t, 75, s.BPercent())

	require.NoError(t, s.Drag(-1))
	assert.Equal(t, 100, s.BPercent())
}

func TestClamping(t *testing.T) {
	s := New(140)
	assert.Equal(t, 100, s.Value())

	s.Unlock()
	require.NoError(t, s.SetValue(-20))
	assert.Equal(t, 0, s.Value())
	require.NoError(t, s.SetValue(250))
	assert.Equal(t, 100, s.Value())
}

func TestKeyboard(t *testing.T) {
	tests := []struct {
		name  string
		key   Key
		shift bool
		want  int
	}{
		{"right", KeyRight, false, 51},
		{"left", KeyLeft, false, 49},
		{"shift right", KeyRight, true, 60},
		{"shift left", KeyLeft, true, 40},
		{"home", KeyHome, false, 100},
		{"end", KeyEnd, false, 0},
		{"other", Key("Tab"), false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(DefaultValue)
			s.Unlock()
			require.NoError(t, s.Press(tt.key, tt.shift))
			assert.Equal(t, tt.want, s.Value())
			assert.True(t, s.Touched())
		})
	}
}

func TestResetRestoresConfirmedValue(t *testing.T) {
	s := New(DefaultValue)
	s.Unlock()
	require.NoError(t, s.SetValue(80))

	confirmed := 35
	s.Reset(&confirmed, true)
	assert.Equal(t, 35, s.Value())
	assert.True(t, s.Confirmed())
	assert.True(t, s.ControlsLocked())
	assert.False(t, s.Touched())

	s.Reset(nil, false)
	assert.Equal(t, 50, s.Value())
	assert.False(t, s.Unlocked())
	assert.False(t, s.Confirmed())
}

func TestViewingPastIsReadOnly(t *testing.T) {
	s := New(DefaultValue)
	s.Reset(nil, true)
	s.Unlock()
	assert.True(t, s.ControlsLocked())
	assert.ErrorIs(t, s.Press(KeyHome, false), ErrReadOnly)
}

func TestCompute(t *testing.T) {
	t.Run("all safe is deterministic", func(t *testing.T) {
		o := Compute(2, 5, -1, 0, 100000)
		assert.InDelta(t, 2000, o.UpAmount, 1e-9)
		assert.InDelta(t, 2000, o.DownAmount, 1e-9)
		assert.InDelta(t, 2000, o.ExpectedAmount, 1e-9)
	})

	t.Run("all risky", func(t *testing.T) {
		o := Compute(2, 5, -1, 100, 100000)
		assert.InDelta(t, 5000, o.UpAmount, 1e-9)
		assert.InDelta(t, -1000, o.DownAmount, 1e-9)
		assert.InDelta(t, 2000, o.ExpectedAmount, 1e-9)
		assert.InDelta(t, 2, o.ExpectedPercent, 1e-9)
	})

	t.Run("half", func(t *testing.T) {
		o := Compute(2, 5, -1, 50, 100000)
		assert.InDelta(t, 3.5, o.UpPercent, 1e-9)
		assert.InDelta(t, 0.5, o.DownPercent, 1e-9)
	})

	t.Run("non-positive total falls back", func(t *testing.T) {
		o := Compute(2, 5, -1, 0, 0)
		assert.InDelta(t, 2000, o.UpAmount, 1e-9)
	})
}
