// Package printer writes colored CLI output for the warren commands.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Users can disable colors with NO_COLOR
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// Out is where non-error output goes.
var Out io.Writer = os.Stdout

// Success prints a green message with a checkmark prefix
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s", strings.TrimPrefix(fmt.Sprintf(format, a...), "✓ "))
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a yellow message with a warning prefix
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "⚠️  %s", strings.TrimPrefix(fmt.Sprintf(format, a...), "⚠️  "))
}

// Step prints an emphasized progress message
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and numbered suggestions
// to stderr, and returns an error carrying only the title for cobra.
func Error(title, explanation string, suggestions ...string) error {
	return ErrorWithContext(title, explanation, nil, suggestions...)
}

// ErrorWithContext is Error with key/value details printed between the
// explanation and the suggestions.
func ErrorWithContext(title, explanation string, details map[string]string, suggestions ...string) error {
	writeError(os.Stderr, title, explanation, details, suggestions)
	return fmt.Errorf("%s", title)
}

func writeError(w io.Writer, title, explanation string, details map[string]string, suggestions []string) {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	if len(details) > 0 {
		fmt.Fprintln(w)
		for _, k := range sortedKeys(details) {
			fmt.Fprintf(w, "  %s: %s\n", k, details[k])
		}
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(w, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(w, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
