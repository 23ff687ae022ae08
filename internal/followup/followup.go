// Package followup decides which follow-up question a confirmed screen must
// answer before the respondent may advance, validates the answers and writes
// them back onto the screen's answer row.
//
// The chain for one screen is REASON -> SANITY -> MID_SANITY -> FINAL. A
// step is pending when its trigger holds for the screen and neither the row
// nor the current visit already satisfied it. At most one step is open at a
// time. Submitting the midpoint sanity check enters a break before the chain
// resumes.
package followup

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/rows"
	"github.com/dyluth/warren/pkg/scenario"
)

// Step is the follow-up state of the current screen.
type Step string

const (
	StepNone      Step = "NONE"
	StepReason    Step = "REASON"
	StepSanity    Step = "SANITY"
	StepMidSanity Step = "MID_SANITY"
	StepFinal     Step = "FINAL"

	// StepBreak is the rest screen shown after the midpoint sanity check. It
	// carries no data.
	StepBreak Step = "BREAK"
)

// MidSanityIndex is the 0-based index of the 15th screen, where the midpoint
// sanity check is asked regardless of the screen's tag.
const MidSanityIndex = 14

// MinTextLen is the minimum trimmed length of free-text answers.
const MinTextLen = 5

var (
	ErrReasonTooShort  = fmt.Errorf("reason must be at least %d characters", MinTextLen)
	ErrPrimaryRequired = errors.New("a primary reason is required")
	ErrUnknownOption   = errors.New("unknown option")
	ErrOtherText       = errors.New("describe the other reason")
	ErrFinalIncomplete = errors.New("final follow-up is incomplete")
	ErrNotOpen         = errors.New("follow-up is not open")
)

// Policy configures which screens require a reason.
type Policy struct {
	RequireReasonOnConfirm bool           // every screen requires a reason
	ReasonTags             []scenario.Tag // screens with these tags require a reason
}

// DefaultPolicy requires a reason on baseline screens.
func DefaultPolicy() Policy {
	return Policy{ReasonTags: []scenario.Tag{scenario.TagBase}}
}

// NeedsReason reports whether confirming in requires a reason.
func (p Policy) NeedsReason(in scenario.Instance) bool {
	if p.RequireReasonOnConfirm {
		return true
	}
	for _, t := range p.ReasonTags {
		if in.Tag == t {
			return true
		}
	}
	return false
}

// SanityAnswer is the response to a sanity question.
type SanityAnswer struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
	OtherText string   `json:"other_text,omitempty"`
}

// Validate checks the primary choice and the other-text requirement.
func (a SanityAnswer) Validate() error {
	if a.Primary == "" {
		return ErrPrimaryRequired
	}
	if !isOption(a.Primary) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, a.Primary)
	}
	for _, k := range a.Secondary {
		if !isOption(k) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, k)
		}
	}
	if a.Primary == OtherKey && strings.TrimSpace(a.OtherText) == "" {
		return ErrOtherText
	}
	return nil
}

// FinalAnswer is the response to the two-part final follow-up.
type FinalAnswer struct {
	Text         string         `json:"text"`          // Q1 comparison explanation
	Ratings      map[string]int `json:"ratings"`       // Q2 factor key -> 0..5
	OtherFactors string         `json:"other_factors"` // optional
}

// Validate requires the Q1 text and a rating for every factor.
func (a FinalAnswer) Validate() error {
	if len(strings.TrimSpace(a.Text)) < MinTextLen {
		return fmt.Errorf("%w: explanation must be at least %d characters", ErrFinalIncomplete, MinTextLen)
	}
	for _, f := range Factors {
		v, ok := a.Ratings[f.Key]
		if !ok {
			return fmt.Errorf("%w: missing rating for %q", ErrFinalIncomplete, f.Label)
		}
		if v < MinRating || v > MaxRating {
			return fmt.Errorf("%w: rating for %q must be %d-%d", ErrFinalIncomplete, f.Label, MinRating, MaxRating)
		}
	}
	for k := range a.Ratings {
		if !isFactor(k) {
			return fmt.Errorf("%w: unknown factor %q", ErrFinalIncomplete, k)
		}
	}
	return nil
}

func isFactor(key string) bool {
	for _, f := range Factors {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Orchestrator tracks the follow-up state of the current screen. It is not
// safe for concurrent use.
type Orchestrator struct {
	policy   Policy
	poolSeed uint32
	rows     *rows.Store
	log      *zap.Logger

	cur   scenario.Instance
	index int
	open  Step
	done  map[Step]bool
}

// New creates an orchestrator writing answers into store.
func New(policy Policy, poolSeed uint32, store *rows.Store, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		policy:   policy,
		poolSeed: poolSeed,
		rows:     store,
		log:      log,
		open:     StepNone,
		done:     map[Step]bool{},
	}
}

// Open returns the open step, StepNone when nothing blocks the screen.
func (o *Orchestrator) Open() Step { return o.open }

// Blocking reports whether a follow-up or the break is open.
func (o *Orchestrator) Blocking() bool { return o.open != StepNone }

// Enter resets the state for a new screen. When the screen already has a
// confirmed row with unanswered follow-ups, the first of them is reopened.
func (o *Orchestrator) Enter(in scenario.Instance, index int) Step {
	o.cur = in
	o.index = index
	o.open = StepNone
	o.done = map[Step]bool{}
	if _, ok := o.rows.Find(in.Order); ok {
		o.open = o.next()
	}
	return o.open
}

// AfterConfirm opens the first pending step of the current screen. StepNone
// means the caller should advance.
func (o *Orchestrator) AfterConfirm() Step {
	o.open = o.next()
	o.logOpened()
	return o.open
}

// Options returns the sanity choices for the open step.
func (o *Orchestrator) Options() []Option {
	if o.open == StepMidSanity {
		return MidSanityOptions()
	}
	return ShuffledOptions(o.poolSeed, o.cur.Order)
}

// SubmitReason records the reason and returns the next step.
func (o *Orchestrator) SubmitReason(text string) (Step, error) {
	if o.open != StepReason {
		return o.open, ErrNotOpen
	}
	text = strings.TrimSpace(text)
	if len(text) < MinTextLen {
		return o.open, ErrReasonTooShort
	}
	o.rows.WriteBack(o.cur.Order, rows.Patch{ReasonText: &text})
	return o.complete(StepReason), nil
}

// SubmitSanity records the sanity answer together with the displayed order.
func (o *Orchestrator) SubmitSanity(a SanityAnswer) (Step, error) {
	if o.open != StepSanity {
		return o.open, ErrNotOpen
	}
	if err := a.Validate(); err != nil {
		return o.open, err
	}
	primary := a.Primary
	o.rows.WriteBack(o.cur.Order, rows.Patch{
		SanityPrimary:   &primary,
		SanitySecondary: nonNil(a.Secondary),
		SanityOtherText: trimmedOrNil(a.OtherText),
		SanityOptsOrder: Keys(ShuffledOptions(o.poolSeed, o.cur.Order)),
	})
	return o.complete(StepSanity), nil
}

// SubmitMidSanity records the midpoint answer and enters the break.
func (o *Orchestrator) SubmitMidSanity(a SanityAnswer) (Step, error) {
	if o.open != StepMidSanity {
		return o.open, ErrNotOpen
	}
	if err := a.Validate(); err != nil {
		return o.open, err
	}
	primary := a.Primary
	o.rows.WriteBack(o.cur.Order, rows.Patch{
		MidSanityPrimary:   &primary,
		MidSanitySecondary: nonNil(a.Secondary),
		MidSanityOtherText: trimmedOrNil(a.OtherText),
		MidSanityOptsOrder: Keys(MidSanityOptions()),
	})
	o.done[StepMidSanity] = true
	o.open = StepBreak
	o.log.Info("midpoint break", zap.Int("order", o.cur.Order))
	return o.open, nil
}

// ContinueFromBreak leaves the break and returns the next pending step.
func (o *Orchestrator) ContinueFromBreak() (Step, error) {
	if o.open != StepBreak {
		return o.open, ErrNotOpen
	}
	o.open = o.next()
	o.logOpened()
	return o.open, nil
}

// RecordFinal validates the final answer and writes it back together with the
// first baseline and last allocations. The step stays open until
// CompleteFinal so a failed submission can be retried.
func (o *Orchestrator) RecordFinal(a FinalAnswer) error {
	if o.open != StepFinal {
		return ErrNotOpen
	}
	if err := a.Validate(); err != nil {
		return err
	}
	text := strings.TrimSpace(a.Text)
	patch := rows.Patch{
		FollowChange:          a.Ratings,
		FollowText:            &text,
		FollowInflationEffect: trimmedOrNil(a.OtherFactors),
	}
	if first, ok := o.rows.FirstBaseline(); ok {
		v := first.RiskyShare
		patch.BaselinePctB = &v
	}
	if last, ok := o.rows.LastScenario(o.cur.Order); ok {
		v := last.RiskyShare
		patch.LastPctB = &v
	}
	o.rows.WriteBack(o.cur.Order, patch)
	return nil
}

// CompleteFinal closes the final step after a successful submission.
func (o *Orchestrator) CompleteFinal() Step {
	if o.open != StepFinal {
		return o.open
	}
	return o.complete(StepFinal)
}

// FinalComparison summarizes the first-versus-last allocation change.
func (o *Orchestrator) FinalComparison() Comparison {
	var first, last *int
	if r, ok := o.rows.FirstBaseline(); ok {
		first = &r.RiskyShare
	}
	if r, ok := o.rows.LastScenario(o.cur.Order); ok {
		last = &r.RiskyShare
	}
	return Compare(first, last)
}

func (o *Orchestrator) complete(step Step) Step {
	o.done[step] = true
	o.open = o.next()
	o.logOpened()
	return o.open
}

// next returns the first pending step of the chain for the current screen.
func (o *Orchestrator) next() Step {
	row, hasRow := o.rows.Find(o.cur.Order)
	pending := func(step Step, trigger, answered bool) bool {
		return trigger && !o.done[step] && !(hasRow && answered)
	}
	switch {
	case pending(StepReason, o.policy.NeedsReason(o.cur), row.ReasonText != nil):
		return StepReason
	case pending(StepSanity, o.cur.IsSanity, row.SanityPrimary != nil):
		return StepSanity
	case pending(StepMidSanity, o.index == MidSanityIndex, row.MidSanityPrimary != nil):
		return StepMidSanity
	case pending(StepFinal, o.cur.IsFinalMirror(), row.FollowChange != nil):
		return StepFinal
	}
	return StepNone
}

func (o *Orchestrator) logOpened() {
	if o.open == StepNone {
		return
	}
	o.log.Info("followup_opened",
		zap.String("component", "followup"),
		zap.String("step", string(o.open)),
		zap.Int("order", o.cur.Order),
		zap.Int("index", o.index))
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return append([]string(nil), xs...)
}
