// Package dialogue keeps the ordered transcript replayed to the completion service.
package dialogue

import "fmt"

// Role identifies who authored a turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is one role-tagged entry of the transcript. Turns are values and are
// never modified after creation.
type Turn struct {
	Role Role
	Text string
}

// Context is the transcript of one session. Element 0 is always the fixed
// system instruction; Reset drops everything after it.
type Context struct {
	turns []Turn
}

// NewContext creates a transcript seeded with the system instruction
func NewContext(instruction string) *Context {
	return &Context{
		turns: []Turn{{Role: RoleSystem, Text: instruction}},
	}
}

// Append adds a turn at the end of the transcript.
func (c *Context) Append(role Role, text string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	c.turns = append(c.turns, Turn{Role: role, Text: text})
	return nil
}

// Reset truncates the transcript to the system instruction.
func (c *Context) Reset() {
	// Zero the dropped tail so old turns are not retained by the backing array.
	clear(c.turns[1:])
	c.turns = c.turns[:1]
}

// Turns returns a copy of the full transcript in chronological order
func (c *Context) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns, including the system instruction
func (c *Context) Len() int {
	return len(c.turns)
}

// Instruction returns the fixed system turn
func (c *Context) Instruction() Turn {
	return c.turns[0]
}

// Last returns the most recent turn
func (c *Context) Last() Turn {
	return c.turns[len(c.turns)-1]
}
