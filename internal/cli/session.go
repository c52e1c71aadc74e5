package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/spindle/internal/presentation/tui"
	"github.com/aretw0/spindle/pkg/player"
)

// RunSession plays a single script to its end.
func RunSession(ctx context.Context, opts RunOptions) error {
	opts.defaults()
	logger := opts.Logger

	d, start, err := loadDialog(ctx, opts)
	if err != nil {
		return fmt.Errorf("error loading script: %w", err)
	}

	reg, err := buildCommands(opts)
	if err != nil {
		return err
	}
	if err := checkDialog(d, start, reg, logger); err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}

	vars, release, err := newVariables(ctx, opts)
	if err != nil {
		return err
	}
	defer release()

	r, err := newRunner(d, start, vars, reg, opts.Stdout, opts)
	if err != nil {
		return err
	}

	p := player.NewPlayer(
		player.WithHandler(newHandler(opts)),
		player.WithLogger(logger),
	)

	logger.Info("Session started", "script", opts.Script, "start", start, "session_id", opts.SessionID)
	runErr := p.Run(ctx, r)
	logger.Info("Session finished", "cursor", r.Cursor().String(), "state", r.State().String())
	return handleExecutionError(runErr)
}

// newHandler picks the NDJSON handler or the text handler, rendering
// through the terminal renderer and printing the banner on a TTY.
func newHandler(opts RunOptions) player.IOHandler {
	if opts.JSON {
		return player.NewJSONHandler(opts.Stdin, opts.Stdout)
	}
	if !isTerminal(opts.Stdin) {
		return player.NewTextHandler(opts.Stdin, opts.Stdout)
	}
	tui.PrintBanner(opts.Stdout)
	return player.NewTextHandler(opts.Stdin, opts.Stdout, player.WithTextHandlerRenderer(tui.NewRenderer()))
}
