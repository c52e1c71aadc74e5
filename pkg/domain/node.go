package domain

import (
	"fmt"
	"strings"
)

// NodeRef addresses a node inside a Dialog arena.
type NodeRef int

// NoRef marks a jump or option target that has not been resolved yet.
const NoRef NodeRef = -1

// Node represents a titled block of lines: a vertex in the dialog graph.
type Node struct {
	Title string `json:"title"`

	// Headers holds every "key: value" pair found above the "---" separator,
	// including the title itself.
	Headers map[string]string `json:"headers,omitempty"`

	// Lines is never empty for a parsed node.
	Lines []Line `json:"lines"`

	// Position is the 1-based source line of the title header (0 when built in code).
	Position int `json:"position,omitempty"`
}

// Line is one parsed unit of script content.
// The set of implementations is closed: SetLine, CommandLine, DialogLine, JumpLine and OptionLine.
type Line interface {
	isLine()
}

// SetLine assigns a boolean variable in the state context.
type SetLine struct {
	Variable string `json:"variable"`
	Value    bool   `json:"value"`
}

// CommandLine invokes an external handler registered under Name.
type CommandLine struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// DialogLine is narrative output.
type DialogLine struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
	Tags    []Tag  `json:"tags,omitempty"`
}

// JumpLine transfers control unconditionally to another node.
type JumpLine struct {
	Target string  `json:"target"`
	Ref    NodeRef `json:"-"`
}

// OptionLine presents a player choice.
type OptionLine struct {
	Speaker       string              `json:"speaker,omitempty"`
	Possibilities []OptionPossibility `json:"possibilities"`
}

func (SetLine) isLine()     {}
func (CommandLine) isLine() {}
func (DialogLine) isLine()  {}
func (JumpLine) isLine()    {}
func (OptionLine) isLine()  {}

// Tag is a trailing "#name:value" annotation on a dialog line.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// OptionPossibility is one candidate branch of an OptionLine.
// Whether it was already chosen is tracked per runner, not here.
type OptionPossibility struct {
	Text      string     `json:"text"`
	Target    string     `json:"target"`
	Ref       NodeRef    `json:"-"`
	Condition *Condition `json:"condition,omitempty"`
}

// ConditionKind is the comparison operator of a guard.
type ConditionKind int

const (
	Equal ConditionKind = iota
	NotEqual
)

func (k ConditionKind) String() string {
	switch k {
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	default:
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
}

// ParseConditionKind converts an operator token into a ConditionKind.
func ParseConditionKind(op string) (ConditionKind, error) {
	switch strings.ToLower(op) {
	case "==", "is", "eq":
		return Equal, nil
	case "!=", "neq":
		return NotEqual, nil
	default:
		return 0, fmt.Errorf("unknown condition operator %q", op)
	}
}

// Condition guards an option possibility: "$Variable Kind Value".
type Condition struct {
	Variable string        `json:"variable"`
	Kind     ConditionKind `json:"kind"`
	Value    bool          `json:"value"`
}

// Evaluate applies the condition to a stored value.
// An unset variable (ok == false) never satisfies a condition.
func (c Condition) Evaluate(stored bool, ok bool) bool {
	if !ok {
		return false
	}
	switch c.Kind {
	case Equal:
		return stored == c.Value
	case NotEqual:
		return stored != c.Value
	default:
		return false
	}
}

func (c Condition) String() string {
	return fmt.Sprintf("$%s %s %t", c.Variable, c.Kind, c.Value)
}
