// Package tally renders stored answer rows for the CLI.
package tally

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/warren/internal/rows"
)

// now is the reference for relative timestamps.
var now = time.Now

// FormatTable writes rows as a table: ORDER, ID, TAG, PI, S/U/D, B%, TIME,
// AGE and a truncated follow-up answer. Returns the number of rows written.
func FormatTable(w io.Writer, answers []rows.AnswerRow, session string) int {
	if len(answers) == 0 {
		fmt.Fprintf(w, "No answers found for session '%s'\n", session)
		return 0
	}

	fmt.Fprintf(w, "Answers for session '%s':\n\n", session)
	fmt.Fprintf(w, "%-5s %-8s %-7s %-3s %-12s %-4s %-7s %-8s %s\n",
		"ORDER", "ID", "TAG", "PI", "S/U/D", "B%", "TIME", "AGE", "FOLLOW-UP")
	fmt.Fprintf(w, "%-5s %-8s %-7s %-3s %-12s %-4s %-7s %-8s %s\n",
		"-----", "--------", "-------", "---", "------------", "----", "-------", "--------", "----------------------------------------")

	for _, r := range answers {
		fmt.Fprintf(w, "%-5d %-8s %-7s %-3d %-12s %-4d %-7s %-8s %s\n",
			r.Order,
			r.ScenarioID,
			r.Tag,
			r.Inflation,
			fmt.Sprintf("%+d/%+d/%+d", r.Safe, r.Up, r.Down),
			r.RiskyShare,
			formatDuration(r.MsSpent),
			formatTimestamp(r.TS),
			formatText(followupSummary(r)),
		)
	}

	noun := "answer"
	if len(answers) != 1 {
		noun = "answers"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(answers), noun)
	return len(answers)
}

// FormatJSONL writes one compact JSON object per row.
func FormatJSONL(w io.Writer, answers []rows.AnswerRow) error {
	for _, r := range answers {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal row to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes v as indented JSON followed by a newline.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

func followupSummary(r rows.AnswerRow) string {
	switch {
	case r.FollowText != nil:
		return *r.FollowText
	case r.ReasonText != nil:
		return *r.ReasonText
	case r.SanityPrimary != nil:
		return "sanity: " + *r.SanityPrimary
	case r.MidSanityPrimary != nil:
		return "mid: " + *r.MidSanityPrimary
	}
	return ""
}

// formatText keeps the first non-empty line, truncated to 40 characters.
func formatText(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 40 {
			return line[:37] + "..."
		}
		return line
	}
	return "-"
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// formatTimestamp renders Unix milliseconds relative to now.
func formatTimestamp(ms int64) string {
	if ms == 0 {
		return "-"
	}
	diff := now().Sub(time.UnixMilli(ms))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
