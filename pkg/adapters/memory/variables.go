package memory

import (
	"context"
	"sync"
)

// Variables implements ports.StateContext in memory.
// Safe for concurrent use.
type Variables struct {
	data map[string]bool
	mu   sync.RWMutex
}

// NewVariables creates a new in-memory variable store, optionally seeded.
func NewVariables(seed ...map[string]bool) *Variables {
	v := &Variables{
		data: make(map[string]bool),
	}
	for _, m := range seed {
		for k, val := range m {
			v.data[k] = val
		}
	}
	return v
}

// Get returns the stored value and whether it was ever set.
func (v *Variables) Get(ctx context.Context, key string) (bool, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok, nil
}

// Set stores a value.
func (v *Variables) Set(ctx context.Context, key string, value bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
	return nil
}

// Delete removes a variable, making it unset again.
func (v *Variables) Delete(ctx context.Context, key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.data, key)
	return nil
}

// Snapshot returns a copy of all variables.
func (v *Variables) Snapshot(ctx context.Context) (map[string]bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]bool, len(v.data))
	for k, val := range v.data {
		out[k] = val
	}
	return out, nil
}
