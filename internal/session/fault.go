package session

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// FaultError reports an unexpected failure while presenting a screen. The
// recorded answers are left as they were.
type FaultError struct {
	Index int
	Value any
}

// Error implements error.
func (e *FaultError) Error() string {
	return fmt.Sprintf("something went wrong while showing screen %d: %v", e.Index+1, e.Value)
}

// Guard runs fn and turns a panic into a *FaultError.
func (s *Session) Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("screen_fault",
				zap.String("session", s.cfg.ID),
				zap.Int("index", s.progress.Index()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = &FaultError{Index: s.progress.Index(), Value: r}
		}
	}()
	return fn()
}
