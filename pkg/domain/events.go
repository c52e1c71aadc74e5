package domain

import (
	"context"
	"fmt"
)

// DialogState is the runner's position in its state machine.
type DialogState int

const (
	// StateStart: ready to process lines from the cursor.
	StateStart DialogState = iota
	// StateDialog: the last event was a dialog line.
	StateDialog
	// StateWaiting: options were presented; only a decision moves the runner.
	StateWaiting
	// StateEnd: the dialog is finished until a reset.
	StateEnd
)

func (s DialogState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDialog:
		return "dialog"
	case StateWaiting:
		return "waiting"
	case StateEnd:
		return "end"
	default:
		return fmt.Sprintf("DialogState(%d)", int(s))
	}
}

// MarshalText lets states appear by name in JSON payloads and logs.
func (s DialogState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *DialogState) UnmarshalText(text []byte) error {
	for _, st := range []DialogState{StateStart, StateDialog, StateWaiting, StateEnd} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown dialog state %q", text)
}

// EventType defines the category of a dialog event.
type EventType string

const (
	EventDialog  EventType = "dialog"
	EventOptions EventType = "options"
	EventWaiting EventType = "waiting"
	EventEnd     EventType = "end"
)

// Option is one choice offered to the player.
type Option struct {
	Text string `json:"text"`
	Node string `json:"node"`
	Used bool   `json:"used"`
}

// Event is what the runner hands back on every NextEvent call.
// Speaker, Text and Tags are set for EventDialog; Speaker and Options for EventOptions.
type Event struct {
	Type    EventType `json:"type"`
	Speaker string    `json:"speaker,omitempty"`
	Text    string    `json:"text,omitempty"`
	Tags    []Tag     `json:"tags,omitempty"`
	Options []Option  `json:"options,omitempty"`
}

// DialogEvent builds an EventDialog from a dialog line.
func DialogEvent(l DialogLine) Event {
	return Event{Type: EventDialog, Speaker: l.Speaker, Text: l.Text, Tags: l.Tags}
}

// OptionsEvent builds an EventOptions.
func OptionsEvent(speaker string, options []Option) Event {
	return Event{Type: EventOptions, Speaker: speaker, Options: options}
}

// WaitingEvent is returned while the runner is blocked on a decision.
func WaitingEvent() Event { return Event{Type: EventWaiting} }

// EndEvent is returned once the dialog has finished.
func EndEvent() Event { return Event{Type: EventEnd} }

// NodeEvent is passed to OnNodeEnter hooks.
type NodeEvent struct {
	Node string
	From string // empty for the starting node or a reset
}

// CommandEvent is passed to OnCommand hooks after the handler returned.
type CommandEvent struct {
	Node string
	Name string
	Args []string
	Err  error
}

// DecisionEvent is passed to OnDecision hooks.
type DecisionEvent struct {
	Node   string // node holding the option line
	Line   int
	Option int
	Target string
}

// LifecycleHooks defines callbacks for runner observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, NodeEvent)
	OnEvent     func(context.Context, Event)
	OnCommand   func(context.Context, CommandEvent)
	OnDecision  func(context.Context, DecisionEvent)
}
