package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// Loader adapts a Loam repository of markdown documents to ports.ScriptLoader.
// Each document carries ScriptMetadata in its frontmatter and a dialog script as its body.
type Loader struct {
	Repo *loam.TypedRepository[ScriptMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ScriptMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict keeps frontmatter types consistent across formats; read-only
	// keeps Loam from creating its sandbox in dev mode. Spindle never writes
	// to the library.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ScriptMetadata](repo)), nil
}

// GetScript retrieves a dialog document by ID.
func (l *Loader) GetScript(ctx context.Context, id string) (ports.Script, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || !l.exists(ctx, id) {
			return ports.Script{}, fmt.Errorf("%w: %s", domain.ErrDialogNotFound, id)
		}
		return ports.Script{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	scriptID := doc.Data.ID
	if scriptID == "" {
		scriptID = doc.ID
	}
	return ports.Script{
		ID:          trimExtension(scriptID),
		Start:       doc.Data.Start,
		Description: doc.Data.Description,
		Source:      normalizeBody(doc.Content),
	}, nil
}

// ListScripts returns the IDs of every document in the repository.
func (l *Loader) ListScripts(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

// exists reports whether id is listed by the repository.
func (l *Loader) exists(ctx context.Context, id string) bool {
	ids, err := l.ListScripts(ctx)
	if err != nil {
		return true // unknown; let the original error through
	}
	for _, known := range ids {
		if known == trimExtension(id) {
			return true
		}
	}
	return false
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// normalizeBody makes scripts compare equal regardless of how the
// frontmatter separator left leading or trailing blank lines.
func normalizeBody(content string) string {
	body := strings.Trim(content, "\r\n")
	if body == "" {
		return ""
	}
	return body + "\n"
}
