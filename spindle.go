package spindle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/spindle/internal/compiler"
	"github.com/aretw0/spindle/internal/runtime"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
)

// FileExtension is the conventional extension for dialog scripts.
const FileExtension = ".yarn"

// DefaultStartNode is used when a script does not name its start node.
const DefaultStartNode = "Start"

// Load parses src and resolves every node reference.
// Errors are *domain.ParseError, *domain.UnknownNodeError or *domain.DuplicateNodeError.
func Load(src string) (*domain.Dialog, error) {
	nodes, err := compiler.Parse(src)
	if err != nil {
		return nil, err
	}
	return domain.NewDialog(nodes)
}

// LoadReader is Load over an io.Reader. Read failures wrap domain.ErrRead.
func LoadReader(r io.Reader) (*domain.Dialog, error) {
	nodes, err := compiler.ParseReader(r)
	if err != nil {
		return nil, err
	}
	return domain.NewDialog(nodes)
}

// LoadFile loads a script from disk.
func LoadFile(path string) (*domain.Dialog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	defer f.Close()

	d, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadScript fetches a script from a library and loads it.
func LoadScript(ctx context.Context, loader ports.ScriptLoader, id string) (*domain.Dialog, ports.Script, error) {
	script, err := loader.GetScript(ctx, id)
	if err != nil {
		return nil, ports.Script{}, err
	}
	d, err := Load(script.Source)
	if err != nil {
		return nil, script, fmt.Errorf("script %s: %w", id, err)
	}
	return d, script, nil
}

// Runner is the high-level entry point for playing a dialog.
// It wraps the internal runtime and provides a simplified API for consumers.
type Runner struct {
	runtime *runtime.Runner
}

// Option defines a functional option for configuring a Runner.
type Option func(*options)

type options struct {
	vars      ports.StateContext
	commands  *registry.Registry
	host      any
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	stepLimit *int
}

// WithVariables sets the state context (defaults to an in-memory store).
func WithVariables(vars ports.StateContext) Option {
	return func(o *options) {
		o.vars = vars
	}
}

// WithCommands sets the command registry.
func WithCommands(reg *registry.Registry) Option {
	return func(o *options) {
		o.commands = reg
	}
}

// WithHost sets the value passed to every command handler.
func WithHost(host any) Option {
	return func(o *options) {
		o.host = host
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStepLimit bounds control-flow steps per NextEvent call. Zero disables the guard.
func WithStepLimit(n int) Option {
	return func(o *options) {
		o.stepLimit = &n
	}
}

// NewRunner creates a runner positioned on the first line of the start node.
func NewRunner(dialog *domain.Dialog, start string, opts ...Option) (*Runner, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if o.logger == nil {
		o.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger := o.logger.With("start", start)

	runtimeOpts := []runtime.Option{
		runtime.WithLifecycleHooks(o.hooks),
		runtime.WithLogger(logger),
		runtime.WithCommands(o.commands),
		runtime.WithHost(o.host),
	}
	if o.vars != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithVariables(o.vars))
	}
	if o.stepLimit != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithStepLimit(*o.stepLimit))
	}

	rt, err := runtime.NewRunner(dialog, start, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	return &Runner{runtime: rt}, nil
}

// NextEvent advances to the next dialog event.
func (r *Runner) NextEvent(ctx context.Context) (domain.Event, error) {
	return r.runtime.NextEvent(ctx)
}

// MakeDecision resolves the pending options by target node title.
func (r *Runner) MakeDecision(ctx context.Context, choice string) error {
	return r.runtime.MakeDecision(ctx, choice)
}

// Choose resolves the pending options by index.
func (r *Runner) Choose(ctx context.Context, index int) error {
	return r.runtime.Choose(ctx, index)
}

// ResetTo moves the cursor to the first line of the named node.
func (r *Runner) ResetTo(title string) error {
	return r.runtime.ResetTo(title)
}

// State returns the current dialog state.
func (r *Runner) State() domain.DialogState { return r.runtime.State() }

// Cursor returns the current position.
func (r *Runner) Cursor() domain.Cursor { return r.runtime.Cursor() }

// Used reports whether this runner has chosen the given option possibility.
func (r *Runner) Used(title string, line, option int) bool {
	return r.runtime.Used(title, line, option)
}

// Pending returns the options awaiting a decision.
func (r *Runner) Pending() []domain.Option { return r.runtime.Pending() }

// Err returns the fault that stopped the runner, if any.
func (r *Runner) Err() error { return r.runtime.Err() }

// Dialog returns the graph the runner walks.
func (r *Runner) Dialog() *domain.Dialog { return r.runtime.Dialog() }

var _ ports.DialogRunner = (*Runner)(nil)
