package ports

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
)

// DialogRunner is the driving port that network adapters (HTTP, MCP) and the
// player loop use to advance one dialog session.
type DialogRunner interface {
	// NextEvent advances until the next observable event.
	NextEvent(ctx context.Context) (domain.Event, error)

	// MakeDecision resolves a pending option by target node title.
	MakeDecision(ctx context.Context, choice string) error

	// Choose resolves a pending option by its index in the last options event.
	Choose(ctx context.Context, index int) error

	// ResetTo moves the cursor to the first line of the named node.
	ResetTo(title string) error

	State() domain.DialogState
	Cursor() domain.Cursor
}
