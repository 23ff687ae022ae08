package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/pkg/scenario"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error")
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := ErrorWithContext("Test Error", "Explanation", map[string]string{"Session": "s1"}, "First", "Second")
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, "Config invalid", "survey.group is unknown",
		map[string]string{"b": "2", "a": "1"}, []string{"Fix the file", "Remove the key"})

	out := buf.String()
	assert.Contains(t, out, "Config invalid")
	assert.Less(t, strings.Index(out, "a: 1"), strings.Index(out, "b: 2"))
	assert.Contains(t, out, "Either:\n  1. Fix the file\n  2. Remove the key\n")
}

func TestMessagesUseOut(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	Success("done\n")
	Success("✓ done\n")
	Warning("careful\n")
	Step("next\n")
	Info("plain %d\n", 1)

	assert.Equal(t, "✓ done\n✓ done\n⚠️  careful\n→ next\nplain 1\n", buf.String())
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "100,000 USD", Money(100000, "USD"))
	assert.Equal(t, "-1,000", Money(-1000, ""))
	assert.Equal(t, "999", Money(999, ""))
	assert.Equal(t, "1,234,568 EUR", Money(1234567.6, "EUR"))
}

func TestScreen(t *testing.T) {
	in := scenario.Instance{ID: "SCN_001", Order: 1, Tag: scenario.TagBase, Safe: 2, Up: 5, Down: -1, Probability: 0.5, IsBaseline: true}
	v := session.View{
		Len:      32,
		Screen:   &in,
		APercent: 0,
		BPercent: 100,
		Value:    100,
		Outcomes: allocation.Compute(2, 5, -1, 100, 100000),
		Followup: followup.StepReason,
	}

	var buf bytes.Buffer
	Screen(&buf, v, "USD")
	out := buf.String()
	assert.Contains(t, out, "Question 1 of 32")
	assert.Contains(t, out, "A: +2% for sure")
	assert.Contains(t, out, "50% chance of +5%, 50% chance of -1%")
	assert.Contains(t, out, "good 5.00% (5,000 USD), bad -1.00% (-1,000 USD), expected 2.00% (2,000 USD)")
	assert.Contains(t, out, "Why did you choose")

	buf.Reset()
	Screen(&buf, session.View{Len: 32, Complete: true}, "USD")
	assert.Equal(t, "Survey complete (32 screens)\n", buf.String())
}

func TestFollowupFinal(t *testing.T) {
	v := session.View{
		Followup:    followup.StepFinal,
		DiffMessage: followup.GenericDiffMessage,
		Comparison:  &followup.Comparison{CanCompare: true, Changed: true, Delta: -10, Toward: "A (safe)"},
		Factors:     followup.Factors,
	}
	var buf bytes.Buffer
	Followup(&buf, v)
	out := buf.String()
	assert.Contains(t, out, "moved by -10 points toward A (safe)")
	assert.Contains(t, out, "Personal Strategy")
}

func TestFlowAndGroups(t *testing.T) {
	flow, err := scenario.Build("12345", scenario.Options{GroupKey: scenario.GroupA, BlockOrder: scenario.OrderLowFirst})
	require.NoError(t, err)

	var buf bytes.Buffer
	Flow(&buf, flow)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2+flow.Len())
	assert.Contains(t, lines[0], "group A")
	assert.True(t, strings.HasPrefix(lines[2], "SCN_001  BASE"))

	groups, err := scenario.FixedGroups()
	require.NoError(t, err)
	buf.Reset()
	Groups(&buf, groups)
	assert.Contains(t, buf.String(), "Group C (13 specs")
}
