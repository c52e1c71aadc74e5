package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// ScriptDoc builds a library document with frontmatter for id and start.
func ScriptDoc(id, start, source string) core.Document {
	front := "---\nid: " + id + "\n"
	if start != "" {
		front += "start: " + start + "\n"
	}
	return core.Document{ID: id + ".md", Content: front + "---\n" + source}
}

// Seed saves docs into repo.
func Seed(t *testing.T, repo core.Repository, docs ...core.Document) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc))
	}
}
