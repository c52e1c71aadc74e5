package runtime

import (
	"log/slog"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
)

// DefaultStepLimit bounds the number of control-flow lines (set, command,
// jump) a single NextEvent call may process.
const DefaultStepLimit = 10000

// Option configures a Runner.
type Option func(*Runner)

// WithVariables sets the state context used by <<set>> lines and option conditions.
// Defaults to a fresh in-memory store.
func WithVariables(vars ports.StateContext) Option {
	return func(r *Runner) {
		r.vars = vars
	}
}

// WithCommands sets the registry commands are dispatched to.
// Without one, every command line is unregistered.
func WithCommands(reg *registry.Registry) Option {
	return func(r *Runner) {
		r.commands = reg
	}
}

// WithHost sets the value handed to every command handler.
func WithHost(host any) Option {
	return func(r *Runner) {
		r.host = host
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithStepLimit overrides DefaultStepLimit. Zero or negative disables the guard.
func WithStepLimit(n int) Option {
	return func(r *Runner) {
		r.stepLimit = n
	}
}
