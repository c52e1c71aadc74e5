package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Variables implements ports.StateContext on a Redis hash, so several
// processes (or several runners) can share one set of dialog variables.
// Values are stored as "1" and "0".
type Variables struct {
	client    *backend.Client
	prefix    string
	namespace string
	ttl       time.Duration
}

// Option configures Variables.
type Option func(*Variables)

// WithTTL sets an expiration refreshed on every write.
func WithTTL(ttl time.Duration) Option {
	return func(v *Variables) {
		v.ttl = ttl
	}
}

// WithPrefix sets the key prefix (default "spindle:vars:").
func WithPrefix(prefix string) Option {
	return func(v *Variables) {
		v.prefix = prefix
	}
}

// New creates a Redis variable store for namespace (e.g. a session or save slot ID).
func New(address, password string, db int, namespace string, opts ...Option) *Variables {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, namespace, opts...)
}

// NewFromClient creates a Redis variable store from an existing client.
func NewFromClient(client *backend.Client, namespace string, opts ...Option) *Variables {
	v := &Variables{
		client:    client,
		prefix:    "spindle:vars:",
		namespace: namespace,
		ttl:       0, // No expiration by default
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Namespaced returns a store sharing this client and options under another namespace.
func (v *Variables) Namespaced(namespace string) *Variables {
	cp := *v
	cp.namespace = namespace
	return &cp
}

func (v *Variables) key() string {
	return v.prefix + v.namespace
}

// Get reads a variable from the hash.
func (v *Variables) Get(ctx context.Context, key string) (bool, bool, error) {
	val, err := v.client.HGet(ctx, v.key(), key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get variable from redis: %w", err)
	}
	value, err := decode(val)
	if err != nil {
		return false, false, fmt.Errorf("variable %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a variable and refreshes the TTL if one is configured.
func (v *Variables) Set(ctx context.Context, key string, value bool) error {
	pipe := v.client.Pipeline()
	pipe.HSet(ctx, v.key(), key, encode(value))
	if v.ttl > 0 {
		pipe.Expire(ctx, v.key(), v.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set variable in redis: %w", err)
	}
	return nil
}

// Snapshot returns every variable in the namespace.
func (v *Variables) Snapshot(ctx context.Context) (map[string]bool, error) {
	all, err := v.client.HGetAll(ctx, v.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read variables from redis: %w", err)
	}
	out := make(map[string]bool, len(all))
	for k, raw := range all {
		value, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", k, err)
		}
		out[k] = value
	}
	return out, nil
}

// Clear removes every variable in the namespace.
func (v *Variables) Clear(ctx context.Context) error {
	return v.client.Del(ctx, v.key()).Err()
}

// Close closes the redis client.
func (v *Variables) Close() error {
	return v.client.Close()
}

func encode(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func decode(raw string) (bool, error) {
	switch raw {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected stored value %q", raw)
	}
}
