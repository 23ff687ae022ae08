package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/internal/export"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/rows"
)

// Unlock opens the allocation panel of the current screen.
func (s *Session) Unlock() error {
	if _, err := s.screen(); err != nil {
		return err
	}
	s.alloc.Unlock()
	return nil
}

// SetValue sets option B's share directly.
func (s *Session) SetValue(v float64) error {
	if _, err := s.screen(); err != nil {
		return err
	}
	return s.alloc.SetValue(v)
}

// SetAFromPercent sets option A's share; B receives the rest.
func (s *Session) SetAFromPercent(a float64) error {
	if _, err := s.screen(); err != nil {
		return err
	}
	return s.alloc.SetAPercent(a)
}

// SetBPercent sets option B's share.
func (s *Session) SetBPercent(b float64) error {
	if _, err := s.screen(); err != nil {
		return err
	}
	return s.alloc.SetBPercent(b)
}

// Drag positions the slider at fraction of its width, left being all B.
func (s *Session) Drag(fraction float64) error {
	if _, err := s.screen(); err != nil {
		return err
	}
	return s.alloc.Drag(fraction)
}

// Key applies a keyboard step to the slider.
func (s *Session) Key(k allocation.Key, shift bool) error {
	if _, err := s.screen(); err != nil {
		return err
	}
	return s.alloc.Press(k, shift)
}

// Confirm records the current allocation and opens the follow-up the screen
// requires, or advances when none is due. In ghost mode nothing is stored.
func (s *Session) Confirm() (followup.Step, error) {
	in, err := s.screen()
	if err != nil {
		return followup.StepNone, err
	}
	if s.fup.Blocking() {
		return s.fup.Open(), ErrFollowupOpen
	}
	if err := s.alloc.CanConfirm(); err != nil {
		return followup.StepNone, err
	}

	now := s.now()
	ms := now.Sub(s.enteredAt).Milliseconds()
	row := rows.FromInstance(in, s.alloc.Value(), now.UnixMilli(), ms, s.cfg.UA)
	if !s.ghost {
		s.rows.InsertIfAbsent(row)
	}
	s.alloc.MarkConfirmed()

	s.log.Info("scenario_confirmed",
		zap.String("session", s.cfg.ID),
		zap.Int("order", in.Order),
		zap.String("tag", string(in.Tag)),
		zap.Int("risky_share", row.RiskyShare),
		zap.Int64("ms_spent", row.MsSpent),
		zap.Bool("ghost", s.ghost))

	step := s.fup.AfterConfirm()
	if step == followup.StepNone {
		s.advance()
	}
	return step, nil
}

// SubmitReason answers the reason question.
func (s *Session) SubmitReason(text string) (followup.Step, error) {
	return s.resolve(s.fup.SubmitReason(text))
}

// SubmitSanity answers the sanity question.
func (s *Session) SubmitSanity(a followup.SanityAnswer) (followup.Step, error) {
	return s.resolve(s.fup.SubmitSanity(a))
}

// SubmitMidSanity answers the midpoint question and opens the break.
func (s *Session) SubmitMidSanity(a followup.SanityAnswer) (followup.Step, error) {
	return s.resolve(s.fup.SubmitMidSanity(a))
}

// ContinueFromBreak leaves the midpoint break.
func (s *Session) ContinueFromBreak() (followup.Step, error) {
	return s.resolve(s.fup.ContinueFromBreak())
}

func (s *Session) resolve(step followup.Step, err error) (followup.Step, error) {
	if err != nil {
		return step, err
	}
	if step == followup.StepNone {
		s.advance()
	}
	return step, nil
}

// SubmitFinal records the final follow-up and sends the wide row. On
// failure the answers stay in place and the call can be repeated. Ghost
// sessions record nothing and send nothing.
func (s *Session) SubmitFinal(ctx context.Context, a followup.FinalAnswer) error {
	if s.fup.Open() != followup.StepFinal {
		return followup.ErrNotOpen
	}
	if err := s.fup.RecordFinal(a); err != nil {
		return err
	}

	if s.submitter != nil && !s.ghost {
		if err := s.submitter.Append(ctx, export.Headers(), s.WideRow()); err != nil {
			s.log.Warn("final_submit_failed", zap.String("session", s.cfg.ID), zap.Error(err))
			return wrapSubmit(err)
		}
		s.log.Info("final_submitted", zap.String("session", s.cfg.ID), zap.Int("rows", s.rows.Len()))
	}

	s.fup.CompleteFinal()
	s.advance()
	s.finish()
	return nil
}

// Back returns to the previous screen. At the first screen it runs the exit
// callback instead.
func (s *Session) Back() error {
	if s.fup.Blocking() {
		return ErrFollowupOpen
	}
	if s.progress.Back() {
		s.enter()
	}
	return nil
}

// ForwardVisited moves forward through screens already reached. It never
// passes the furthest screen.
func (s *Session) ForwardVisited() error {
	if s.fup.Blocking() {
		return ErrFollowupOpen
	}
	if s.progress.ForwardWithinVisited() {
		s.enter()
	}
	return nil
}

// IsInputError reports whether err is a validation error from respondent
// input, as opposed to a submission failure.
func IsInputError(err error) bool {
	for _, target := range []error{
		allocation.ErrNotUnlocked, allocation.ErrNotTouched, allocation.ErrReadOnly,
		followup.ErrReasonTooShort, followup.ErrPrimaryRequired, followup.ErrUnknownOption,
		followup.ErrOtherText, followup.ErrFinalIncomplete, followup.ErrNotOpen,
		ErrFollowupOpen, ErrComplete,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
