// Package resolver expands session ID prefixes typed on the command line.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dyluth/warren/pkg/kv"
)

// MinShortIDLength is the minimum length of a session ID prefix.
const MinShortIDLength = 6

// ResolveSessionID returns the session whose ID is exactly id or, failing
// that, the only session whose ID starts with id.
func ResolveSessionID(ctx context.Context, store kv.Store, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("session ID must not be empty")
	}

	exact, err := store.Keys(ctx, kv.SessionPrefix(id))
	if err != nil {
		return "", fmt.Errorf("failed to search for session: %w", err)
	}
	if len(exact) > 0 {
		return id, nil
	}

	if len(id) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(id))
	}

	keys, err := store.Keys(ctx, kv.Namespace+id)
	if err != nil {
		return "", fmt.Errorf("failed to search for session: %w", err)
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		session, _, ok := strings.Cut(strings.TrimPrefix(k, kv.Namespace), ":")
		if ok {
			seen[session] = true
		}
	}
	matches := make([]string, 0, len(seen))
	for s := range seen {
		matches = append(matches, s)
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: id}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: id, Matches: matches}
	}
}

// NotFoundError indicates no session matched the prefix.
type NotFoundError struct {
	ShortID string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no sessions found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several sessions matched the prefix.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

// Error implements error.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d sessions", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists up to 10 matching sessions.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous short ID '%s' matches %d sessions:\n", err.ShortID, len(err.Matches))
	for i, m := range err.Matches {
		if i == 10 {
			fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
			break
		}
		fmt.Fprintf(&b, "  %s\n", m)
	}
	b.WriteString("\nUse a longer prefix to uniquely identify the session.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
