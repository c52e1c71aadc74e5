package player

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// Turn combines an event with the runner position for rich clients (Web, MCP).
type Turn struct {
	Event  domain.Event       `json:"event"`
	State  domain.DialogState `json:"state"`
	Cursor domain.Cursor      `json:"cursor"`
}

// Advance calls NextEvent and reports where the runner ended up.
func Advance(ctx context.Context, r ports.DialogRunner) (*Turn, error) {
	ev, err := r.NextEvent(ctx)
	if err != nil {
		return nil, err
	}
	return &Turn{Event: ev, State: r.State(), Cursor: r.Cursor()}, nil
}

// DecideAndAdvance resolves the pending options and immediately advances,
// so clients always receive the content of the node they chose.
func DecideAndAdvance(ctx context.Context, r ports.DialogRunner, choice string) (*Turn, error) {
	if err := r.MakeDecision(ctx, choice); err != nil {
		return nil, err
	}
	return Advance(ctx, r)
}
