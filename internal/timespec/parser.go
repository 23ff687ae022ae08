// Package timespec parses the --since and --until flags of the row views.
package timespec

import (
	"fmt"
	"time"
)

// Parse turns a time specification into Unix milliseconds. It accepts an
// RFC3339 timestamp ("2025-10-29T13:00:00Z") or a Go duration ("1h30m"),
// which is read as that long before now.
func Parse(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}
	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d).UnixMilli(), nil
	}
	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// Window is a closed time range in Unix milliseconds. Zero means unbounded.
type Window struct {
	SinceMs int64
	UntilMs int64
}

// ParseWindow parses both flags. Since must come before until when both are
// given.
func ParseWindow(since, until string, now time.Time) (Window, error) {
	var w Window
	var err error
	if since != "" {
		if w.SinceMs, err = Parse(since, now); err != nil {
			return Window{}, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if w.UntilMs, err = Parse(until, now); err != nil {
			return Window{}, fmt.Errorf("invalid --until: %w", err)
		}
	}
	if w.SinceMs > 0 && w.UntilMs > 0 && w.SinceMs >= w.UntilMs {
		return Window{}, fmt.Errorf("--since must be before --until")
	}
	return w, nil
}

// Contains reports whether ms falls inside the window.
func (w Window) Contains(ms int64) bool {
	if w.SinceMs > 0 && ms < w.SinceMs {
		return false
	}
	if w.UntilMs > 0 && ms > w.UntilMs {
		return false
	}
	return true
}
