package autopilot

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/pkg/scenario"
)

type recordingSubmitter struct {
	calls int
	row   map[string]any
	err   error
}

func (r *recordingSubmitter) Append(_ context.Context, _ []string, row map[string]any) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.row = row
	return nil
}

func newSession(t *testing.T, id string, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New(context.Background(), session.Config{
		ID:      id,
		Seed:    "12345",
		Options: scenario.Options{GroupKey: scenario.GroupB},
	}, opts...)
	require.NoError(t, err)
	return s
}

func TestRunCompletesSession(t *testing.T) {
	sub := &recordingSubmitter{}
	s := newSession(t, "auto", session.WithSubmitter(sub))

	res, err := New(s, Constant(40)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Finished)
	assert.Equal(t, 32, res.Rows)
	assert.GreaterOrEqual(t, res.Steps, 32)
	assert.Zero(t, res.Commands)
	assert.Regexp(t, regexp.MustCompile(`^JMP-[0-9A-Z]+$`), res.CompletionCode)

	assert.Equal(t, 1, sub.calls)
	for _, r := range s.Rows() {
		assert.Equal(t, 40, r.RiskyShare, "order %d", r.Order)
	}
}

func TestRunAppliesJumpCommand(t *testing.T) {
	s := newSession(t, "jump")
	events := make(chan admin.Command, 1)
	events <- admin.Jump(5)

	res, err := New(s, Constant(70), WithCommands(events, nil)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Finished)
	assert.Equal(t, 1, res.Commands)
	assert.Equal(t, 27, res.Rows)
}

func TestRunStopsOnFinishCommand(t *testing.T) {
	s := newSession(t, "finish")
	events := make(chan admin.Command, 1)
	events <- admin.Command{Type: admin.CommandFinish}

	res, err := New(s, Constant(70), WithCommands(events, nil)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Finished)
	assert.Zero(t, res.Rows)
	assert.Zero(t, res.Steps)
	assert.NotEmpty(t, res.CompletionCode)
}

func TestRunIgnoresInvalidCommandsAndClosedChannels(t *testing.T) {
	s := newSession(t, "closed")
	events := make(chan admin.Command, 1)
	events <- admin.Command{Type: "rewind"}
	close(events)
	errs := make(chan error, 1)
	errs <- errors.New("malformed message")
	close(errs)

	res, err := New(s, Constant(10), WithCommands(events, errs)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, 1, res.Commands)
	assert.Equal(t, 32, res.Rows)
}

func TestRunMovesPastReadOnlyScreens(t *testing.T) {
	s := newSession(t, "revisit")
	require.NoError(t, s.Unlock())
	require.NoError(t, s.SetValue(10))
	step, err := s.Confirm()
	require.NoError(t, err)
	require.Equal(t, followup.StepReason, step)
	_, err = s.SubmitReason("steady is better")
	require.NoError(t, err)

	require.True(t, s.Admin().Prev())
	require.True(t, s.View().Locked)
	require.True(t, s.View().ViewingPast)

	res, err := New(s, Constant(60)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, 32, res.Rows)

	require.NotEmpty(t, s.Rows())
	assert.Equal(t, 10, s.Rows()[0].RiskyShare)
}

func TestRunUnlocksFreshScreen(t *testing.T) {
	s := newSession(t, "fresh")
	v := s.View()
	require.True(t, v.Locked)
	require.False(t, v.Confirmed)
	require.False(t, v.ViewingPast)

	r := New(s, Constant(70))
	require.NoError(t, r.step(context.Background()))

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 70, rows[0].RiskyShare)
}

func TestRunReportsSubmitFailure(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("Server error")}
	s := newSession(t, "fail", session.WithSubmitter(sub))

	res, err := New(s, Constant(40)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit response")
	assert.False(t, res.Finished)
	assert.Equal(t, 32, res.Rows)
	assert.Equal(t, followup.StepFinal, s.View().Followup)
}

func TestRunHonoursContext(t *testing.T) {
	s := newSession(t, "cancel")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(s, Constant(40)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Finished)
}

func TestRunRendersScreens(t *testing.T) {
	var buf bytes.Buffer
	s := newSession(t, "render")

	_, err := New(s, RiskNeutral{}, WithOutput(&buf, "USD")).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestStrategies(t *testing.T) {
	in := func(safe, up, down int) scenario.Instance {
		return scenario.Instance{Safe: safe, Up: up, Down: down}
	}

	assert.Equal(t, 100, Constant(150).Allocate(in(2, 6, -1)))
	assert.Equal(t, 0, Constant(-5).Allocate(in(2, 6, -1)))

	assert.Equal(t, 100, RiskNeutral{}.Allocate(in(2, 6, -1)))
	assert.Equal(t, 0, RiskNeutral{}.Allocate(in(3, 4, 0)))
	assert.Equal(t, 50, RiskNeutral{}.Allocate(in(2, 3, 1)))

	a, b := NewRandom("seed"), NewRandom("seed")
	for i := 0; i < 50; i++ {
		va := a.Allocate(in(0, 0, 0))
		assert.Equal(t, va, b.Allocate(in(0, 0, 0)))
		assert.GreaterOrEqual(t, va, 0)
		assert.LessOrEqual(t, va, 100)
	}
}

func TestNewStrategy(t *testing.T) {
	st, err := NewStrategy(StrategyConstant, 30, "")
	require.NoError(t, err)
	assert.Equal(t, Constant(30), st)

	st, err = NewStrategy(StrategyRiskNeutral, 0, "")
	require.NoError(t, err)
	assert.Equal(t, RiskNeutral{}, st)

	st, err = NewStrategy(StrategyRandom, 0, "x")
	require.NoError(t, err)
	assert.IsType(t, &Random{}, st)

	_, err = NewStrategy("greedy", 0, "")
	assert.Error(t, err)
}
