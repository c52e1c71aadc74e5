package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/registry"
)

// Runner binds script commands to local processes.
// Only registered programs run; script arguments never become process flags.
type Runner struct {
	commands map[string]Config
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]Config) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			c.Name = name
			r.commands[name] = c
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		commands: make(map[string]Config),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted program to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.commands[name] = Config{Name: name, Command: command, Args: args}
}

// Names returns the registered command names in sorted order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install registers every configured program on b.
func (r *Runner) Install(b *registry.Builder) *registry.Builder {
	for _, name := range r.Names() {
		b.Register(name, r.Func(name))
	}
	return b
}

// Func returns a command handler that runs the program registered under name.
//
// Script arguments are passed as SPINDLE_ARGC and SPINDLE_ARG_<i> environment
// variables. Stdout is copied to the host when it is an io.Writer.
func (r *Runner) Func(name string) registry.CommandFunc {
	return func(ctx context.Context, host any, args []string) error {
		c, ok := r.commands[name]
		if !ok {
			return fmt.Errorf("process command not registered: %s", name)
		}

		cmd := exec.CommandContext(ctx, c.Command, c.Args...)
		cmd.Dir = r.baseDir

		env := []string{
			"SPINDLE_COMMAND=" + name,
			"SPINDLE_ARGC=" + strconv.Itoa(len(args)),
		}
		for i, arg := range args {
			env = append(env, fmt.Sprintf("SPINDLE_ARG_%d=%s", i, arg))
		}
		for k, v := range c.Environment {
			env = append(env, k+"="+v)
		}
		cmd.Env = append(cmd.Environ(), env...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		r.logger.Debug("Running process command", "command", name, "exec", c.Command, "args", len(args))
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}

		if w, ok := host.(io.Writer); ok && stdout.Len() > 0 {
			if _, err := w.Write(stdout.Bytes()); err != nil {
				return fmt.Errorf("failed to forward output: %w", err)
			}
		}
		return nil
	}
}
