package loam

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/testutils"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports/tests"
)

const tavernBody = `title: Start
---
Narrator: Welcome.
<<jump Exit>>
===

title: Exit
---
Bye.
===
`

func TestLoader_Contract(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	testutils.Seed(t, repo,
		testutils.ScriptDoc("tavern", "Start", tavernBody),
		testutils.ScriptDoc("short", "", "title: A\n---\nHi\n===\n"),
	)

	loader := New(loam.NewTypedRepository[ScriptMetadata](repo))
	tests.ScriptLoaderContractTest(t, loader, map[string]string{
		"tavern": tavernBody,
		"short":  "title: A\n---\nHi\n===\n",
	})
}

func TestLoader_MetadataAndPlay(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	testutils.Seed(t, repo, core.Document{
		ID:      "tavern.md",
		Content: "---\nid: tavern\nstart: Start\ndescription: A quiet evening\n---\n" + tavernBody,
	})
	loader := New(loam.NewTypedRepository[ScriptMetadata](repo))
	ctx := context.Background()

	d, script, err := spindle.LoadScript(ctx, loader, "tavern")
	require.NoError(t, err)
	assert.Equal(t, "Start", script.Start)
	assert.Equal(t, "A quiet evening", script.Description)

	r, err := spindle.NewRunner(d, script.Start)
	require.NoError(t, err)
	ev, err := r.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome.", ev.Text)
}

func TestLoader_ListScripts_NormalizesIDs(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	testutils.Seed(t, repo,
		core.Document{ID: "chapters/one.md", Content: "---\nstart: A\n---\ntitle: A\n---\nHi\n===\n"},
	)
	loader := New(loam.NewTypedRepository[ScriptMetadata](repo))

	ids, err := loader.ListScripts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chapters/one"}, ids)
}

func TestLoader_NotFound(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	loader := New(loam.NewTypedRepository[ScriptMetadata](repo))

	_, err := loader.GetScript(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrDialogNotFound), "got %v", err)
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, "a\n", normalizeBody("\n\na\n\n"))
	assert.Equal(t, "", normalizeBody("\n"))
}
