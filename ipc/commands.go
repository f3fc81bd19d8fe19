package ipc

import (
	"encoding/json"
	"fmt"
)

// Command is one entry of a build or deploy stack. The engine expects it
// as a bare array: ["DF", 13, 12].
type Command struct {
	Shorthand string
	X, Y      int
}

func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Shorthand, c.X, c.Y})
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("command has %d fields, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Shorthand); err != nil {
		return fmt.Errorf("command shorthand: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.X); err != nil {
		return fmt.Errorf("command x: %w", err)
	}
	if err := json.Unmarshal(raw[2], &c.Y); err != nil {
		return fmt.Errorf("command y: %w", err)
	}
	return nil
}

// Submission is the reply to a turn frame: structures first, then units.
type Submission struct {
	Build  []Command
	Deploy []Command
}
