package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/pkg/kv"
)

// Admin holds the privileged operations. It is only reachable through
// Session.Admin and never from respondent input.
type Admin struct {
	s *Session
}

// Admin returns the privileged operations of the session.
func (s *Session) Admin() *Admin {
	return &Admin{s: s}
}

// Prev moves one screen back. It is ignored while a follow-up is open.
func (a *Admin) Prev() bool {
	if a.s.fup.Blocking() {
		return false
	}
	return a.move(a.s.progress.Index() - 1)
}

// Next moves one screen forward, even past unanswered screens. It is
// ignored while a follow-up is open and never leaves the last screen.
func (a *Admin) Next() bool {
	if a.s.fup.Blocking() {
		return false
	}
	return a.move(a.s.progress.Index() + 1)
}

// JumpTo moves to any screen, clamped into the flow.
func (a *Admin) JumpTo(index int) {
	a.s.progress.JumpTo(index)
	a.s.enter()
	a.s.log.Info("admin_jump", zap.String("session", a.s.cfg.ID), zap.Int("index", a.s.progress.Index()))
}

// Finish ends the survey without a submission.
func (a *Admin) Finish() {
	a.s.finish()
}

// SetGhost turns persistence suppression on or off. The flag itself is
// stored so it survives a restart.
func (a *Admin) SetGhost(on bool) {
	a.s.ghost = on
	a.s.save(kv.GhostKey(a.s.cfg.ID), on)
	a.s.log.Info("ghost_mode", zap.String("session", a.s.cfg.ID), zap.Bool("on", on))
}

// Handle applies a command received on the admin channel.
func (a *Admin) Handle(cmd admin.Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("failed to apply admin command: %w", err)
	}
	switch cmd.Type {
	case admin.CommandPrev:
		a.Prev()
	case admin.CommandNext:
		a.Next()
	case admin.CommandJump:
		a.JumpTo(*cmd.To)
	case admin.CommandFinish:
		a.Finish()
	case admin.CommandGhost:
		a.SetGhost(*cmd.Value)
	}
	return nil
}

// HandleCommand applies an admin channel command to the session.
func (s *Session) HandleCommand(cmd admin.Command) error {
	return s.Admin().Handle(cmd)
}

func (a *Admin) move(to int) bool {
	last := a.s.progress.Len() - 1
	to = min(max(to, 0), last)
	if to == a.s.progress.Index() {
		return false
	}
	a.s.progress.JumpTo(to)
	a.s.enter()
	return true
}
