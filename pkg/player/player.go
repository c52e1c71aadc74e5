package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// Player runs the event loop of a dialog runner over an IOHandler.
type Player struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// NewPlayer creates a Player.
func NewPlayer(opts ...Option) *Player {
	p := &Player{}
	for _, opt := range opts {
		opt(p)
	}
	if p.Handler == nil {
		p.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Run plays r until the dialog ends, the input is closed or no option is left to choose,
// all of which return nil.
// Command failures are reported through SystemOutput and play continues.
func (p *Player) Run(ctx context.Context, r ports.DialogRunner) error {
	for {
		ev, err := r.NextEvent(ctx)
		if err != nil {
			var cmdErr *domain.CommandError
			if errors.As(err, &cmdErr) {
				p.Logger.Warn("command failed", "command", cmdErr.Name, "node", cmdErr.Node, "err", cmdErr.Err)
				if err := p.Handler.SystemOutput(ctx, cmdErr.Error()); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return err
		}

		if err := p.Handler.Output(ctx, ev); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		switch ev.Type {
		case domain.EventEnd:
			return nil
		case domain.EventOptions:
			if len(ev.Options) == 0 {
				p.Logger.Warn("no options to choose from", "cursor", r.Cursor().String())
				return p.Handler.SystemOutput(ctx, "no options available, the dialog cannot continue")
			}
			if err := p.decide(ctx, r, ev.Options); err != nil {
				if errors.Is(err, io.EOF) {
					p.Logger.Debug("input closed", "cursor", r.Cursor().String())
					return nil
				}
				return err
			}
		}
	}
}

// decide reads input until it resolves to one of opts.
// A number picks by 1-based position, anything else is matched as a node title.
func (p *Player) decide(ctx context.Context, r ports.DialogRunner, opts []domain.Option) error {
	for {
		input, err := p.Handler.Input(ctx)
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "exit" || input == "quit" {
			return io.EOF
		}

		if n, convErr := strconv.Atoi(input); convErr == nil {
			err = r.Choose(ctx, n-1)
		} else {
			err = r.MakeDecision(ctx, input)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrUnknownChoice) {
			return err
		}

		p.Logger.Debug("choice rejected", "input", input)
		if err := p.Handler.SystemOutput(ctx, fmt.Sprintf("%q is not one of the %d options", input, len(opts))); err != nil {
			return err
		}
	}
}
