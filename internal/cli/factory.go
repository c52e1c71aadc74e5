package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/validator"
	"github.com/aretw0/spindle/pkg/adapters/loam"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/adapters/process"
	"github.com/aretw0/spindle/pkg/adapters/redis"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/observability"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
)

// loadDialog reads opts.Script as a file when one exists at that path,
// and otherwise as a script id in the library. The start node is, in order,
// opts.Start, the library document's start field and DefaultStartNode.
func loadDialog(ctx context.Context, opts RunOptions) (*domain.Dialog, string, error) {
	if info, err := os.Stat(opts.Script); err == nil && !info.IsDir() {
		d, err := spindle.LoadFile(opts.Script)
		if err != nil {
			return nil, "", err
		}
		return d, pick(opts.Start, spindle.DefaultStartNode), nil
	}

	lib, err := loam.Open(opts.Library)
	if err != nil {
		return nil, "", err
	}
	d, script, err := spindle.LoadScript(ctx, lib, opts.Script)
	if err != nil {
		return nil, "", err
	}
	return d, pick(opts.Start, script.Start, spindle.DefaultStartNode), nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// buildCommands registers the process-backed commands listed in opts.Commands.
func buildCommands(opts RunOptions) (*registry.Registry, error) {
	b := registry.NewBuilder()
	if opts.Commands == "" {
		return b.Build(), nil
	}
	cfg, err := process.LoadCommands(opts.Commands)
	if err != nil {
		return nil, err
	}
	procs := process.NewRunner(process.WithCommands(cfg), process.WithLogger(opts.Logger))
	return procs.Install(b).Build(), nil
}

// newVariables returns the variable store and a function releasing it.
// Redis-backed stores survive restarts; Fresh clears them first.
func newVariables(ctx context.Context, opts RunOptions) (ports.StateContext, func(), error) {
	rc := opts.Redis
	if rc.Addr == "" {
		return memory.NewVariables(), func() {}, nil
	}

	var redisOpts []redis.Option
	if rc.Prefix != "" {
		redisOpts = append(redisOpts, redis.WithPrefix(rc.Prefix))
	}
	if rc.TTL > 0 {
		redisOpts = append(redisOpts, redis.WithTTL(rc.TTL))
	}
	vars := redis.New(rc.Addr, rc.Password, rc.DB, opts.SessionID, redisOpts...)
	release := func() {
		if err := vars.Close(); err != nil {
			opts.Logger.Warn("Failed to close variable store", "err", err)
		}
	}
	if opts.Fresh {
		if err := vars.Clear(ctx); err != nil {
			release()
			return nil, nil, fmt.Errorf("failed to reset session %q: %w", opts.SessionID, err)
		}
	}
	return vars, release, nil
}

// checkDialog runs static validation, logging warnings and failing on errors.
func checkDialog(d *domain.Dialog, start string, reg *registry.Registry, logger *slog.Logger) error {
	report := validator.Validate(d, validator.Options{Start: start, Commands: reg})
	for _, issue := range report.Issues {
		if issue.Severity == validator.SeverityWarning {
			logger.Warn("Validation warning", "issue", issue.String())
		}
	}
	return report.Err()
}

// newRunner wires the runner with the CLI's variables, commands and hooks.
func newRunner(d *domain.Dialog, start string, vars ports.StateContext, reg *registry.Registry, host io.Writer, opts RunOptions) (*spindle.Runner, error) {
	runnerOpts := []spindle.Option{
		spindle.WithVariables(vars),
		spindle.WithCommands(reg),
		spindle.WithHost(host),
		spindle.WithLogger(opts.Logger),
	}
	if opts.Debug {
		runnerOpts = append(runnerOpts, spindle.WithLifecycleHooks(observability.LoggingHooks(opts.Logger)))
	}
	if opts.StepLimit != nil {
		runnerOpts = append(runnerOpts, spindle.WithStepLimit(*opts.StepLimit))
	}
	return spindle.NewRunner(d, start, runnerOpts...)
}
