package cli

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/pkg/adapters/loam"
	"github.com/aretw0/spindle/pkg/adapters/redis"
	"github.com/aretw0/spindle/pkg/observability"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/session"
)

// Host bundles what the network adapters share: the script library,
// the session manager and the metrics registry.
type Host struct {
	Scripts  ports.ScriptLoader
	Sessions *session.Manager
	Registry *prometheus.Registry

	client *backend.Client
}

// HostOptions configures NewHost.
type HostOptions struct {
	Config   config.Config
	Commands string
	Logger   *slog.Logger
}

// NewHost opens the library and wires sessions to it. With Redis configured,
// session variables live in Redis and session access is guarded by a Redis lock.
func NewHost(opts HostOptions) (*Host, error) {
	if opts.Logger == nil {
		opts.Logger = createLogger(false)
	}
	cfg := opts.Config

	lib, err := loam.Open(cfg.Library)
	if err != nil {
		return nil, err
	}
	return newHost(lib, opts)
}

func newHost(scripts ports.ScriptLoader, opts HostOptions) (*Host, error) {
	cfg := opts.Config
	logger := opts.Logger

	reg, err := buildCommands(RunOptions{Commands: opts.Commands, Logger: logger})
	if err != nil {
		return nil, err
	}

	h := &Host{Scripts: scripts, Registry: prometheus.NewRegistry()}
	metrics := observability.NewMetrics(h.Registry)

	runnerOpts := []spindle.Option{
		spindle.WithCommands(reg),
		spindle.WithLogger(logger),
		spindle.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))),
		spindle.WithStepLimit(cfg.StepLimit),
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		h.client = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var redisOpts []redis.Option
		if cfg.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(cfg.Redis.TTL))
		}
		base := redis.NewFromClient(h.client, "", redisOpts...)
		sessionOpts = append(sessionOpts,
			session.WithVariables(func(id string) ports.StateContext { return base.Namespaced(id) }),
			session.WithLocker(redis.NewLocker(h.client, "spindle:")),
		)
	}

	h.Sessions = session.NewManager(session.ScriptFactory(scripts, runnerOpts...), sessionOpts...)
	return h, nil
}

// MetricsHandler exposes the host's registry in the Prometheus text format.
func (h *Host) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})
}

// Close releases the Redis client, if any.
func (h *Host) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}
