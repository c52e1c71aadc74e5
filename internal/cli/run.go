package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/spindle/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Script    string // path to a script file, or a script id in Library
	Library   string
	Start     string
	JSON      bool
	Debug     bool
	Watch     bool
	Commands  string // commands.yaml with process-backed commands
	Redis     config.RedisConfig
	SessionID string // variable namespace when Redis.Addr is set
	Fresh     bool
	StepLimit *int // nil keeps the runner default; 0 disables the guard

	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger
}

func (o *RunOptions) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = createLogger(o.Debug)
	}
	if o.Library == "" {
		o.Library = "."
	}
	if o.SessionID == "" {
		o.SessionID = "default"
	}
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Script == "" {
		return errors.New("no script given")
	}
	opts.defaults()

	if opts.Watch {
		if opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		return RunWatch(ctx, opts)
	}
	return RunSession(ctx, opts)
}
