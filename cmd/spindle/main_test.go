package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tavern = "../../testdata/tavern.yarn"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "spindle version "))
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "", "graph", tavern)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "Bar")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "", "validate", tavern)
	require.NoError(t, err)
	assert.Contains(t, out, "Scripts are valid!")

	bad := filepath.Join(t.TempDir(), "loop.yarn")
	require.NoError(t, os.WriteFile(bad, []byte("title: Start\n---\n<<jump Start>>\n===\n"), 0o644))
	out, err = execute(t, "", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "silent jump cycle")
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "2\n", "run", tavern, "--commands", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Narrator: Welcome to the tavern.")
	assert.True(t, strings.HasSuffix(out, "[end]\n"), out)
}

func TestVarsRequiresRedis(t *testing.T) {
	t.Setenv("SPINDLE_REDIS_ADDR", "")
	_, err := execute(t, "", "vars", "show", "default")
	assert.ErrorContains(t, err, "redis is not configured")
}
