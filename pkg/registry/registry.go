package registry

import (
	"context"
	"sort"
	"sync"
)

// CommandFunc defines the signature for a command implementation.
// It receives the host value the runner was configured with (its effect
// channel) and the command's arguments in source order.
type CommandFunc func(ctx context.Context, host any, args []string) error

// Builder collects commands before the registry is frozen.
// A Builder is safe for concurrent registration.
type Builder struct {
	mu       sync.Mutex
	commands map[string]CommandFunc
}

// NewBuilder creates a new empty builder.
func NewBuilder() *Builder {
	return &Builder{
		commands: make(map[string]CommandFunc),
	}
}

// Register adds a command to the builder.
// If a command with the same name exists, it is overwritten.
func (b *Builder) Register(name string, fn CommandFunc) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands[name] = fn
	return b
}

// Build freezes the registered commands into a Registry.
// Later Register calls on the builder do not affect registries already built.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()

	commands := make(map[string]CommandFunc, len(b.commands))
	for name, fn := range b.commands {
		commands[name] = fn
	}
	return &Registry{commands: commands}
}

// Registry maps command names to handlers. It is immutable and may be
// shared by any number of runners. A nil *Registry has no commands.
type Registry struct {
	commands map[string]CommandFunc
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (CommandFunc, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.commands[name]
	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered command names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
