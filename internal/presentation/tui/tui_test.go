package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("Guard: *halt*")
	require.NoError(t, err)
	assert.Contains(t, out, "halt")
}

func TestPrintBanner_NoColor(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.Equal(t, 7, strings.Count(out, "\n"))
	assert.NotContains(t, out, "\x1b[", "a buffer is not a color terminal")
}
