// Package allocation holds the per-screen interaction state of the
// allocation control: the share given to the risky option, the unlock gate
// and the touch gate.
package allocation

import (
	"errors"
	"math"
)

// Defaults.
const (
	DefaultValue  = 50
	DefaultAmount = 100000.0
	snap          = 1
)

var (
	// ErrNotUnlocked is returned when the panel has not been opened yet.
	ErrNotUnlocked = errors.New("allocation panel is not unlocked")

	// ErrReadOnly is returned for screens that are confirmed or in the past.
	ErrReadOnly = errors.New("allocation is read-only")

	// ErrNotTouched is returned by CanConfirm before the control was moved.
	ErrNotTouched = errors.New("allocation has not been touched")
)

// Key is a keyboard input on the control.
type Key string

const (
	KeyLeft  Key = "ArrowLeft"
	KeyRight Key = "ArrowRight"
	KeyHome  Key = "Home"
	KeyEnd   Key = "End"
)

// State is the allocation control of the current screen. Value is the percent
// allocated to option B; option A receives the remainder.
type State struct {
	value       int
	defaultB    int
	unlocked    bool
	touched     bool
	confirmed   bool
	viewingPast bool
}

// New returns a state with the given default, clamped into [0, 100].
func New(defaultB int) *State {
	s := &State{defaultB: normalize(float64(defaultB))}
	s.value = s.defaultB
	return s
}

// Reset is called on every scenario change. A confirmed value, when given,
// is restored for read-only review and the state is marked confirmed.
func (s *State) Reset(confirmedValue *int, viewingPast bool) {
	s.unlocked = false
	s.touched = false
	s.viewingPast = viewingPast
	s.confirmed = confirmedValue != nil
	if confirmedValue != nil {
		s.value = normalize(float64(*confirmedValue))
		return
	}
	s.value = s.defaultB
}

// Value returns option B's share in percent.
func (s *State) Value() int { return s.value }

// APercent returns option A's share in percent.
func (s *State) APercent() int { return 100 - s.value }

// BPercent returns option B's share in percent.
func (s *State) BPercent() int { return s.value }

// Unlocked reports whether the panel was opened.
func (s *State) Unlocked() bool { return s.unlocked }

// Touched reports whether the control was moved since the last reset.
func (s *State) Touched() bool { return s.touched }

// Confirmed reports whether the screen already has a recorded answer.
func (s *State) Confirmed() bool { return s.confirmed }

// ViewingPast reports whether the screen is behind the furthest one reached.
func (s *State) ViewingPast() bool { return s.viewingPast }

// Unlock opens the panel.
func (s *State) Unlock() {
	s.unlocked = true
}

// ControlsLocked reports whether input is refused.
func (s *State) ControlsLocked() bool {
	return s.confirmed || !s.unlocked || s.viewingPast
}

// ConfirmDisabled reports whether the confirm action is unavailable.
func (s *State) ConfirmDisabled() bool {
	return s.ControlsLocked() || !s.touched
}

// CanConfirm explains why confirm is disabled, or returns nil.
func (s *State) CanConfirm() error {
	if err := s.editable(); err != nil {
		return err
	}
	if !s.touched {
		return ErrNotTouched
	}
	return nil
}

// MarkConfirmed locks the control after a successful confirm.
func (s *State) MarkConfirmed() {
	s.confirmed = true
}

// SetValue sets option B's percent. The value is snapped and clamped into
// [0, 100] and counts as a touch even if unchanged.
func (s *State) SetValue(v float64) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.touched = true
	s.value = normalize(v)
	return nil
}

// SetBPercent is the numeric input for option B.
func (s *State) SetBPercent(b float64) error {
	return s.SetValue(b)
}

// SetAPercent is the numeric input for option A.
func (s *State) SetAPercent(a float64) error {
	return s.SetValue(100 - a)
}

// Drag sets the value from a pointer position on the bar, where fraction 0
// is the left edge (all in B) and 1 the right edge (all in A).
func (s *State) Drag(fraction float64) error {
	if math.IsNaN(fraction) {
		return s.SetValue(float64(s.value))
	}
	fraction = math.Max(0, math.Min(1, fraction))
	return s.SetValue(100 - math.Round(fraction*100))
}

// Press applies a keyboard step: arrows move by 1, or 10 with shift; Home
// selects 100 and End 0. Unknown keys still count as a touch.
func (s *State) Press(key Key, shift bool) error {
	if err := s.editable(); err != nil {
		return err
	}
	step := snap
	if shift {
		step = 10 * snap
	}
	switch key {
	case KeyLeft:
		return s.SetValue(float64(s.value - step))
	case KeyRight:
		return s.SetValue(float64(s.value + step))
	case KeyHome:
		return s.SetValue(100)
	case KeyEnd:
		return s.SetValue(0)
	default:
		s.touched = true
		return nil
	}
}

func (s *State) editable() error {
	if s.confirmed || s.viewingPast {
		return ErrReadOnly
	}
	if !s.unlocked {
		return ErrNotUnlocked
	}
	return nil
}

func normalize(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	v = math.Round(v/snap) * snap
	return int(math.Max(0, math.Min(100, v)))
}
