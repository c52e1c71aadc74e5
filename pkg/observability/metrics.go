package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/spindle/pkg/domain"
)

// Metrics records runner activity as Prometheus counters.
type Metrics struct {
	NodeVisits *prometheus.CounterVec
	Events     *prometheus.CounterVec
	Commands   *prometheus.CounterVec
	Decisions  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_events_total",
				Help: "Events produced by runners, by type",
			},
			[]string{"type"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_commands_total",
				Help: "Command executions, by name and outcome",
			},
			[]string{"command", "status"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_decisions_total",
				Help: "Decisions made, by source node and target",
			},
			[]string{"node", "target"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.Events, m.Commands, m.Decisions)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnEvent: func(ctx context.Context, e domain.Event) {
			m.Events.WithLabelValues(string(e.Type)).Inc()
		},
		OnCommand: func(ctx context.Context, e domain.CommandEvent) {
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.Commands.WithLabelValues(e.Name, status).Inc()
		},
		OnDecision: func(ctx context.Context, e domain.DecisionEvent) {
			m.Decisions.WithLabelValues(e.Node, e.Target).Inc()
		},
	}
}
