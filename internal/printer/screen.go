package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/pkg/scenario"
)

// Screen renders the current state of a session.
func Screen(w io.Writer, v session.View, currency string) {
	if v.Complete || v.Screen == nil {
		green.Fprintf(w, "Survey complete (%d screens)\n", v.Len)
		return
	}
	in := v.Screen

	bold.Fprintf(w, "Question %d of %d", v.Index+1, v.Len)
	fmt.Fprintf(w, "  [%s, inflation %d%%]", in.Tag, in.Inflation)
	if v.Ghost {
		yellow.Fprint(w, "  ghost")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  A: %+d%% for sure\n", in.Safe)
	fmt.Fprintf(w, "  B: 50%% chance of %+d%%, 50%% chance of %+d%%\n", in.Up, in.Down)

	alloc := fmt.Sprintf("  Allocation: A %d%% / B %d%%", v.APercent, v.BPercent)
	if v.Locked {
		faint.Fprintln(w, alloc+" (locked)")
	} else {
		fmt.Fprintln(w, alloc)
	}
	o := v.Outcomes
	fmt.Fprintf(w, "  Outcomes: good %.2f%% (%s), bad %.2f%% (%s), expected %.2f%% (%s)\n",
		o.UpPercent, Money(o.UpAmount, currency),
		o.DownPercent, Money(o.DownAmount, currency),
		o.ExpectedPercent, Money(o.ExpectedAmount, currency))

	Followup(w, v)
}

// Followup renders the open follow-up question, if any.
func Followup(w io.Writer, v session.View) {
	switch v.Followup {
	case followup.StepReason:
		cyan.Fprintln(w, "  Why did you choose this allocation?")
	case followup.StepSanity, followup.StepMidSanity:
		cyan.Fprintln(w, "  What best explains your choice?")
		for i, o := range v.Options {
			fmt.Fprintf(w, "    %d. %s\n", i+1, o.Label)
		}
	case followup.StepBreak:
		green.Fprintf(w, "  You are %d%% done. Take a short break.\n", v.BreakPercent)
		fmt.Fprintf(w, "  From now on, assume inflation is %d%%.\n", v.NextInflation)
	case followup.StepFinal:
		cyan.Fprintln(w, "  "+v.DiffMessage)
		if c := v.Comparison; c != nil && c.CanCompare {
			if c.Changed {
				fmt.Fprintf(w, "  Your share in B moved by %+d points toward %s.\n", c.Delta, c.Toward)
			} else {
				fmt.Fprintln(w, "  Your share in B did not change.")
			}
		}
		fmt.Fprintln(w, "  Rate how much each factor mattered (0-5):")
		for _, f := range v.Factors {
			fmt.Fprintf(w, "    - %s\n", f.Label)
		}
	}
}

// Flow renders a flow as one line per screen.
func Flow(w io.Writer, f *scenario.Flow) {
	m := f.Meta
	bold.Fprintf(w, "Flow for seed %q", m.Seed)
	fmt.Fprintf(w, ": group %s, block order %v, %d screens", m.GroupKey, [2]int(m.BlockOrder), f.Len())
	if m.Fallback {
		yellow.Fprint(w, " (fallback)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-8s %-7s %-6s %-4s %5s %5s %5s\n", "ID", "TAG", "BLOCK", "PI", "S", "U", "D")
	for _, in := range f.Items {
		fmt.Fprintf(w, "%-8s %-7s %-6d %-4d %+5d %+5d %+5d\n",
			in.ID, in.Tag, in.Block, in.Inflation, in.Safe, in.Up, in.Down)
	}
}

// Groups renders the fixed partition.
func Groups(w io.Writer, groups scenario.Groups) {
	for _, key := range scenario.GroupKeys {
		bold.Fprintf(w, "Group %s", key)
		fmt.Fprintf(w, " (%d specs, final %s)\n", len(groups[key]), scenario.FinalFor(key))
		for _, s := range groups[key] {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}

// Money formats an amount with thousands separators.
func Money(amount float64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := fmt.Sprintf("%.0f", amount)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if currency == "" {
		return sign + b.String()
	}
	return sign + b.String() + " " + currency
}
