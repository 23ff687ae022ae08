// Package admin carries privileged navigation commands to a running
// respondent session over Redis Pub/Sub.
package admin

import (
	"errors"
	"fmt"
)

// CommandType names an administrative command.
type CommandType string

const (
	CommandPrev   CommandType = "prev"
	CommandNext   CommandType = "next"
	CommandJump   CommandType = "jump"
	CommandFinish CommandType = "finish"
	CommandGhost  CommandType = "ghost"
)

// Validate checks if the CommandType is a valid enum value.
func (t CommandType) Validate() error {
	switch t {
	case CommandPrev, CommandNext, CommandJump, CommandFinish, CommandGhost:
		return nil
	default:
		return fmt.Errorf("invalid command type: %q", t)
	}
}

// Command is the wire form of an admin command.
type Command struct {
	Type  CommandType `json:"type"`
	To    *int        `json:"to,omitempty"`    // jump target, 0-based
	Value *bool       `json:"value,omitempty"` // ghost mode on/off
}

// Validate checks the command has the fields its type needs.
func (c Command) Validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	switch c.Type {
	case CommandJump:
		if c.To == nil {
			return errors.New("jump requires a target index")
		}
	case CommandGhost:
		if c.Value == nil {
			return errors.New("ghost requires a value")
		}
	}
	return nil
}

// Jump returns a jump command.
func Jump(to int) Command {
	return Command{Type: CommandJump, To: &to}
}

// Ghost returns a ghost-mode command.
func Ghost(on bool) Command {
	return Command{Type: CommandGhost, Value: &on}
}
