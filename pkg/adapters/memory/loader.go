package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// Loader implements ports.ScriptLoader using an in-memory map.
type Loader struct {
	scripts map[string]ports.Script
}

// NewLoader creates a new Loader from raw script sources keyed by ID.
func NewLoader(data map[string]string) *Loader {
	scripts := make(map[string]ports.Script, len(data))
	for id, src := range data {
		scripts[id] = ports.Script{ID: id, Source: src}
	}
	return &Loader{scripts: scripts}
}

// NewFromScripts creates a Loader from fully described scripts.
func NewFromScripts(scripts ...ports.Script) (*Loader, error) {
	m := make(map[string]ports.Script, len(scripts))
	for _, s := range scripts {
		if s.ID == "" {
			return nil, fmt.Errorf("script missing ID")
		}
		m[s.ID] = s
	}
	return &Loader{scripts: m}, nil
}

// GetScript retrieves a script by ID.
func (l *Loader) GetScript(ctx context.Context, id string) (ports.Script, error) {
	s, ok := l.scripts[id]
	if !ok {
		return ports.Script{}, fmt.Errorf("%w: %s", domain.ErrDialogNotFound, id)
	}
	return s, nil
}

// ListScripts returns all available script IDs.
func (l *Loader) ListScripts(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.scripts))
	for k := range l.scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
