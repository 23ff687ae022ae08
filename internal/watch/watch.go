// Package watch waits for a running session to reflect an admin command in
// its stored state.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/warren/internal/progress"
	"github.com/dyluth/warren/pkg/kv"
)

// PollInterval is how often the stored state is read.
var PollInterval = 200 * time.Millisecond

// WaitForIndex polls the session's progress until it shows the screen at
// index. Returns the matching state or an error if timeout occurs.
func WaitForIndex(ctx context.Context, store kv.Store, session string, index int, timeout time.Duration) (progress.State, error) {
	var state progress.State
	err := poll(ctx, timeout, func() (bool, error) {
		if err := store.Get(ctx, kv.ProgressKey(session), &state); err != nil {
			if kv.IsNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to read progress: %w", err)
		}
		return state.Index == index, nil
	})
	if err != nil {
		return progress.State{}, err
	}
	return state, nil
}

// WaitForGhost polls the session's ghost flag until it equals on.
func WaitForGhost(ctx context.Context, store kv.Store, session string, on bool, timeout time.Duration) error {
	return poll(ctx, timeout, func() (bool, error) {
		var ghost bool
		if err := store.Get(ctx, kv.GhostKey(session), &ghost); err != nil {
			if kv.IsNotFound(err) {
				return !on, nil
			}
			return false, fmt.Errorf("failed to read ghost flag: %w", err)
		}
		return ghost == on, nil
	})
}

func poll(ctx context.Context, timeout time.Duration, check func() (bool, error)) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timeoutCh:
			return fmt.Errorf("timeout waiting for session after %v", timeout)

		case <-ticker.C:
			done, err := check()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}
