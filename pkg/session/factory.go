package session

import (
	"context"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/pkg/ports"
)

// ScriptFactory builds runners for the scripts of loader. Each runner starts at
// the script's start node, or spindle.DefaultStartNode when none is set.
// opts are applied to every runner before its variables.
func ScriptFactory(loader ports.ScriptLoader, opts ...spindle.Option) Factory {
	return func(ctx context.Context, scriptID string, vars ports.StateContext) (ports.DialogRunner, error) {
		dialog, script, err := spindle.LoadScript(ctx, loader, scriptID)
		if err != nil {
			return nil, err
		}
		start := script.Start
		if start == "" {
			start = spindle.DefaultStartNode
		}
		runnerOpts := append(append([]spindle.Option{}, opts...), spindle.WithVariables(vars))
		return spindle.NewRunner(dialog, start, runnerOpts...)
	}
}
