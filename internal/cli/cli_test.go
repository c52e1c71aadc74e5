package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/pkg/adapters/redis"
	"github.com/aretw0/spindle/pkg/domain"
)

const tavern = "../../testdata/tavern.yarn"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecute_Flags(t *testing.T) {
	ctx := context.Background()

	assert.EqualError(t, Execute(ctx, RunOptions{}), "no script given")
	assert.EqualError(t, Execute(ctx, RunOptions{Script: tavern, Watch: true, JSON: true}),
		"--watch and --json cannot be used together")
}

// jumpChain hops through n silent nodes before its only line.
func jumpChain(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Hop%d", i)
		if i == 0 {
			title = "Start"
		}
		fmt.Fprintf(&b, "title: %s\n---\n<<jump Hop%d>>\n===\n", title, i+1)
	}
	fmt.Fprintf(&b, "title: Hop%d\n---\nGuide: Arrived.\n===\n", n)
	return b.String()
}

func TestRunSession_StepLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chain.yarn", jumpChain(10001))

	tests := []struct {
		name    string
		limit   *int
		wantErr bool
	}{
		{"default", nil, true},
		{"disabled", ptr(0), false},
		{"raised", ptr(20000), false},
		{"lowered", ptr(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			err := RunSession(context.Background(), RunOptions{
				Script:    path,
				StepLimit: tt.limit,
				Stdin:     strings.NewReader(""),
				Stdout:    out,
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrStepLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Guide: Arrived.\n[end]\n", out.String())
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestRunSession_Text(t *testing.T) {
	out := &bytes.Buffer{}
	err := Execute(context.Background(), RunOptions{
		Script: tavern,
		Stdin:  strings.NewReader("Drink\n2\n"),
		Stdout: out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Bartender: Here you go.")
	assert.Contains(t, out.String(), "  1) Order a drink (seen)")
	assert.True(t, strings.HasSuffix(out.String(), "Narrator: You step into the night.\n[end]\n"), out.String())
}

func TestRunSession_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	err := RunSession(context.Background(), RunOptions{
		Script: tavern,
		JSON:   true,
		Stdin:  strings.NewReader("\"Exit\"\n"),
		Stdout: out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"type":"end"}`, lines[3])
}

func TestRunSession_InputClosed(t *testing.T) {
	err := RunSession(context.Background(), RunOptions{
		Script: tavern,
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
	})
	assert.NoError(t, err)
}

func TestRunSession_StartOverride(t *testing.T) {
	out := &bytes.Buffer{}
	err := RunSession(context.Background(), RunOptions{
		Script: tavern,
		Start:  "Exit",
		Stdin:  strings.NewReader(""),
		Stdout: out,
	})
	require.NoError(t, err)
	assert.Equal(t, "Narrator: You step into the night.\n[end]\n", out.String())
}

func TestRunSession_Invalid(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "ghost.yarn", "title: Start\n---\n<<ghost>>\n===\n")

	err := RunSession(context.Background(), RunOptions{Script: script, Stdin: strings.NewReader(""), Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `command "ghost" is not registered`)

	err = RunSession(context.Background(), RunOptions{Script: "missing", Library: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrDialogNotFound)
}

func TestRunSession_ProcessCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	script := writeFile(t, dir, "bell.yarn", "title: Start\n---\n<<bell loud>>\nNarrator: Quiet again.\n===\n")
	commands := writeFile(t, dir, "commands.yaml", `
commands:
  - name: bell
    command: sh
    args: ["-c", "printf 'ding (%s)\n' \"$SPINDLE_ARG_0\""]
`)

	out := &bytes.Buffer{}
	err := RunSession(context.Background(), RunOptions{
		Script:   script,
		Commands: commands,
		Stdin:    strings.NewReader(""),
		Stdout:   out,
	})
	require.NoError(t, err)
	assert.Equal(t, "ding (loud)\nNarrator: Quiet again.\n[end]\n", out.String())
}

func TestRunSession_RedisVariables(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	opts := RunOptions{
		Script:    tavern,
		Redis:     config.RedisConfig{Addr: s.Addr()},
		SessionID: "slot-1",
		Stdin:     strings.NewReader(""),
		Stdout:    &bytes.Buffer{},
	}
	require.NoError(t, RunSession(ctx, opts))

	vars := redis.New(s.Addr(), "", 0, "slot-1")
	defer vars.Close()
	met, ok, err := vars.Get(ctx, "met")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, met)

	require.NoError(t, vars.Set(ctx, "stale", true))
	opts.Fresh = true
	opts.Stdin = strings.NewReader("")
	require.NoError(t, RunSession(ctx, opts))

	_, ok, err = vars.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDialog_Library(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ferry.md", "---\nid: ferry\nstart: Dock\n---\ntitle: Dock\n---\nFerryman: All aboard.\n===\n")

	d, start, err := loadDialog(context.Background(), RunOptions{Script: "ferry", Library: dir})
	require.NoError(t, err)
	assert.Equal(t, "Dock", start)
	assert.Equal(t, []string{"Dock"}, d.Titles())

	_, start, err = loadDialog(context.Background(), RunOptions{Script: "ferry", Library: dir, Start: "Elsewhere"})
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", start)
}

func TestPick(t *testing.T) {
	assert.Equal(t, "b", pick("", "b", "c"))
	assert.Equal(t, "", pick("", ""))
}
