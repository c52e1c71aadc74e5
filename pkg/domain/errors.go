package domain

import (
	"errors"
	"fmt"
)

// Load-time errors.
var (
	// ErrRead is returned when the script source cannot be read.
	ErrRead = errors.New("failed to read dialog source")
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")
	// ErrUnknownNode is returned when a jump or option names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node reference")
	// ErrDuplicateNode is returned when two nodes share a title.
	ErrDuplicateNode = errors.New("duplicate node title")
)

// Construction and runtime errors.
var (
	ErrStartingNodeNotFound = errors.New("starting node not found")
	ErrNodeNotFound         = errors.New("node not found")
	ErrWrongState           = errors.New("operation not allowed in current dialog state")
	ErrUnknownChoice        = errors.New("unknown node chosen")
	ErrUnregisteredCommand  = errors.New("unregistered command")
	ErrStepLimit            = errors.New("step limit exceeded without producing an event")
)

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrDialogNotFound is returned by script loaders for unknown dialog IDs.
var ErrDialogNotFound = errors.New("dialog not found")

// ParseError reports a grammar violation at a source location.
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based, 0 when the whole line is at fault
	Reason string
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// UnknownNodeError names a dangling jump or option target.
type UnknownNodeError struct {
	Title string // the missing target
	From  string // node holding the reference
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %q references unknown node %q", e.From, e.Title)
}

func (e *UnknownNodeError) Unwrap() error { return ErrUnknownNode }

// DuplicateNodeError reports a title defined more than once.
type DuplicateNodeError struct {
	Title     string
	Positions []int
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q is defined more than once (lines %v)", e.Title, e.Positions)
}

func (e *DuplicateNodeError) Unwrap() error { return ErrDuplicateNode }

// StartingNodeNotFoundError is returned when a runner is created with an unknown start title.
type StartingNodeNotFoundError struct {
	Title string
}

func (e *StartingNodeNotFoundError) Error() string {
	return fmt.Sprintf("selected starting node does not exist in this dialog: %s", e.Title)
}

func (e *StartingNodeNotFoundError) Unwrap() error { return ErrStartingNodeNotFound }

// WrongStateError reports a runner operation attempted in the wrong state.
type WrongStateError struct {
	Current  DialogState
	Expected DialogState
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("current state: %s, expected to perform this operation: %s", e.Current, e.Expected)
}

func (e *WrongStateError) Unwrap() error { return ErrWrongState }

// UnknownChoiceError reports a decision that is not among the presented options.
type UnknownChoiceError struct {
	Choice string
}

func (e *UnknownChoiceError) Error() string {
	return fmt.Sprintf("unknown node chosen: %s", e.Choice)
}

func (e *UnknownChoiceError) Unwrap() error { return ErrUnknownChoice }

// UnregisteredCommandError is fatal for the runner that hit it.
type UnregisteredCommandError struct {
	Name string
	Node string
}

func (e *UnregisteredCommandError) Error() string {
	return fmt.Sprintf("command %q used in node %q is not registered", e.Name, e.Node)
}

func (e *UnregisteredCommandError) Unwrap() error { return ErrUnregisteredCommand }

// CommandError wraps a failure returned by a registered command handler.
type CommandError struct {
	Name string
	Node string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q in node %q failed: %v", e.Name, e.Node, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
