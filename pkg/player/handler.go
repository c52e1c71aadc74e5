package player

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents one event to the user.
	Output(ctx context.Context, ev domain.Event) error

	// Input reads a response from the user. It returns io.EOF when the stream is closed.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, retries) distinct from dialog content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a line before output, e.g. Markdown to ANSI.
type ContentRenderer func(string) (string, error)
