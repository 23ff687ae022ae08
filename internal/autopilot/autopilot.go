// Package autopilot drives a session the way a respondent would. It answers
// every screen with a Strategy and applies admin commands between steps.
package autopilot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/session"
)

// ErrStalled is returned when the session stops making progress.
var ErrStalled = errors.New("session stopped making progress")

// Answers holds the canned follow-up responses.
type Answers struct {
	Reason    string
	Sanity    string // empty picks the first option shown
	MidSanity string
	Final     followup.FinalAnswer
}

// DefaultAnswers returns answers that satisfy every follow-up.
func DefaultAnswers() Answers {
	ratings := make(map[string]int, len(followup.Factors))
	for _, f := range followup.Factors {
		ratings[f.Key] = 3
	}
	return Answers{
		Reason:    "It felt like the right balance.",
		MidSanity: "consistency",
		Final: followup.FinalAnswer{
			Text:    "I compared the returns and stayed with my plan.",
			Ratings: ratings,
		},
	}
}

// Result summarizes a run.
type Result struct {
	Steps          int    `json:"steps"`
	Rows           int    `json:"rows"`
	Commands       int    `json:"admin_commands"`
	Finished       bool   `json:"finished"`
	CompletionCode string `json:"completion_code,omitempty"`
}

// Runner answers one session.
type Runner struct {
	s        *session.Session
	strategy Strategy
	answers  Answers
	log      *zap.Logger
	out      io.Writer
	currency string
	events   <-chan admin.Command
	errs     <-chan error
}

// Option configures a Runner.
type Option func(*Runner)

// WithAnswers replaces the follow-up answers.
func WithAnswers(a Answers) Option {
	return func(r *Runner) { r.answers = a }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithOutput renders every screen to w.
func WithOutput(w io.Writer, currency string) Option {
	return func(r *Runner) {
		r.out = w
		r.currency = currency
	}
}

// WithCommands applies admin commands from a subscription between steps.
func WithCommands(events <-chan admin.Command, errs <-chan error) Option {
	return func(r *Runner) {
		r.events = events
		r.errs = errs
	}
}

// New creates a runner for s.
func New(s *session.Session, strategy Strategy, opts ...Option) *Runner {
	r := &Runner{s: s, strategy: strategy, answers: DefaultAnswers(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run answers screens until the session finishes or the flow runs out.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result
	budget := 20 * r.s.Flow().Len()

	for !r.s.Finished() {
		if err := ctx.Err(); err != nil {
			return r.result(res), err
		}

		select {
		case cmd, ok := <-r.events:
			if !ok {
				r.events = nil
				continue
			}
			res.Commands++
			if err := r.s.Guard(func() error { return r.s.HandleCommand(cmd) }); err != nil {
				r.log.Warn("admin_command_failed", zap.String("type", string(cmd.Type)), zap.Error(err))
			}
			continue
		case err, ok := <-r.errs:
			if !ok {
				r.errs = nil
				continue
			}
			r.log.Warn("admin_subscription_error", zap.Error(err))
			continue
		default:
		}

		if r.s.View().Complete {
			break
		}
		if res.Steps >= budget {
			return r.result(res), fmt.Errorf("%w after %d steps", ErrStalled, res.Steps)
		}
		res.Steps++

		if err := r.s.Guard(func() error { return r.step(ctx) }); err != nil {
			return r.result(res), err
		}
	}
	return r.result(res), nil
}

func (r *Runner) result(res Result) Result {
	res.Rows = len(r.s.Rows())
	res.Finished = r.s.Finished()
	if res.Finished {
		res.CompletionCode = r.s.CompletionCode()
	}
	return res
}

// step performs one respondent action on the current screen.
func (r *Runner) step(ctx context.Context) error {
	v := r.s.View()
	if r.out != nil {
		printer.Screen(r.out, v, r.currency)
	}

	var err error
	switch v.Followup {
	case followup.StepNone:
		// Fresh screens report Locked until unlocked; only confirmed or
		// past screens are read-only.
		if v.Confirmed || v.ViewingPast {
			return r.forward(v.Index)
		}
		if err := r.s.Unlock(); err != nil {
			return err
		}
		if err := r.s.SetValue(float64(r.strategy.Allocate(*v.Screen))); err != nil {
			return err
		}
		_, err = r.s.Confirm()
	case followup.StepReason:
		_, err = r.s.SubmitReason(r.answers.Reason)
	case followup.StepSanity:
		primary := r.answers.Sanity
		if primary == "" && len(v.Options) > 0 {
			primary = v.Options[0].Key
		}
		_, err = r.s.SubmitSanity(followup.SanityAnswer{Primary: primary})
	case followup.StepMidSanity:
		_, err = r.s.SubmitMidSanity(followup.SanityAnswer{Primary: r.answers.MidSanity})
	case followup.StepBreak:
		_, err = r.s.ContinueFromBreak()
	case followup.StepFinal:
		err = r.s.SubmitFinal(ctx, r.answers.Final)
	default:
		err = fmt.Errorf("unexpected follow-up %q", v.Followup)
	}
	if err != nil {
		return fmt.Errorf("failed to answer screen %d: %w", v.Index+1, err)
	}
	return nil
}

// forward leaves a read-only screen reached by going back.
func (r *Runner) forward(index int) error {
	if err := r.s.ForwardVisited(); err != nil {
		return err
	}
	if r.s.View().Index == index {
		return fmt.Errorf("%w: screen %d is read-only", ErrStalled, index+1)
	}
	return nil
}
