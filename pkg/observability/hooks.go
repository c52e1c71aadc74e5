package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/spindle/pkg/domain"
)

// Combine merges several hook sets into one. Hooks run in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnNodeEnter = chain(out.OnNodeEnter, s.OnNodeEnter)
		out.OnEvent = chain(out.OnEvent, s.OnEvent)
		out.OnCommand = chain(out.OnCommand, s.OnCommand)
		out.OnDecision = chain(out.OnDecision, s.OnDecision)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks writes every lifecycle event to logger at Info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter", "node", e.Node, "from", e.From)
		},
		OnEvent: func(ctx context.Context, e domain.Event) {
			logger.InfoContext(ctx, "event", "type", e.Type, "speaker", e.Speaker)
		},
		OnCommand: func(ctx context.Context, e domain.CommandEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "command", "node", e.Node, "command", e.Name, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "command", "node", e.Node, "command", e.Name, "args", e.Args)
		},
		OnDecision: func(ctx context.Context, e domain.DecisionEvent) {
			logger.InfoContext(ctx, "decision", "node", e.Node, "target", e.Target)
		},
	}
}
