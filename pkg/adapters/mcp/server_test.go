package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	spindlemcp "github.com/aretw0/spindle/pkg/adapters/mcp"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/session"
)

const ferry = `title: Dock
---
Ferryman: Crossing?
-> Pay the coin
    <<jump Crossing>>
-> Walk away
    <<jump Shore>>
===
title: Crossing
---
Ferryman: Hold on.
===
title: Shore
---
Narrator: The river stays behind you.
===
`

type testEnv struct {
	server *spindlemcp.Server
	id     int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loader, err := memory.NewFromScripts(ports.Script{ID: "ferry", Start: "Dock", Description: "A river crossing", Source: ferry})
	require.NoError(t, err)
	mgr := session.NewManager(session.ScriptFactory(loader))
	env := &testEnv{server: spindlemcp.NewServer(mgr, loader)}

	resp := env.rpc(t, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
	})
	require.Nil(t, resp["error"])
	return env
}

// rpc sends one JSON-RPC request through HandleMessage and returns the decoded response.
func (e *testEnv) rpc(t *testing.T, method string, params map[string]any) map[string]any {
	t.Helper()
	e.id++
	raw, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": e.id, "method": method, "params": params})
	require.NoError(t, err)

	resp := e.server.MCPServer().HandleMessage(context.Background(), raw)
	require.NotNil(t, resp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func (e *testEnv) callTool(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	resp := e.rpc(t, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp["error"], "JSON-RPC error: %v", resp["error"])

	data, err := json.Marshal(resp["result"])
	require.NoError(t, err)
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(data, &result))
	return &result
}

func turnOf(t *testing.T, result *mcp.CallToolResult) spindlemcp.TurnResponse {
	t.Helper()
	require.False(t, result.IsError, "tool failed: %v", result.Content)
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var turn spindlemcp.TurnResponse
	require.NoError(t, json.Unmarshal(data, &turn))
	return turn
}

func TestTools_PlayThrough(t *testing.T) {
	env := newTestEnv(t)

	turn := turnOf(t, env.callTool(t, "start_dialog", map[string]any{"script": "ferry"}))
	require.NotEmpty(t, turn.SessionID)
	assert.Equal(t, "dialog", turn.Event["type"])
	assert.Equal(t, "Crossing?", turn.Event["text"])
	assert.Equal(t, "dialog", turn.State)

	id := turn.SessionID
	turn = turnOf(t, env.callTool(t, "next_event", map[string]any{"session_id": id}))
	assert.Equal(t, "options", turn.Event["type"])
	assert.Equal(t, "waiting", turn.State)
	assert.Len(t, turn.Event["options"], 2)

	turn = turnOf(t, env.callTool(t, "make_decision", map[string]any{"session_id": id, "choice": "Shore"}))
	assert.Equal(t, "The river stays behind you.", turn.Event["text"])
	assert.Equal(t, "end", turn.State)
	assert.Equal(t, "Shore", turn.Node)

	turn = turnOf(t, env.callTool(t, "reset_to", map[string]any{"session_id": id, "node": "Crossing"}))
	assert.Equal(t, "Hold on.", turn.Event["text"])
}

func TestTools_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.True(t, env.callTool(t, "start_dialog", map[string]any{"script": "nope"}).IsError)
	assert.True(t, env.callTool(t, "next_event", map[string]any{"session_id": "nope"}).IsError)

	turn := turnOf(t, env.callTool(t, "start_dialog", map[string]any{"script": "ferry"}))
	assert.True(t, env.callTool(t, "make_decision", map[string]any{"session_id": turn.SessionID, "choice": "Shore"}).IsError,
		"no options pending yet")
	assert.True(t, env.callTool(t, "reset_to", map[string]any{"session_id": turn.SessionID, "node": "Nowhere"}).IsError)
}

func TestTools_Library(t *testing.T) {
	env := newTestEnv(t)

	result := env.callTool(t, "list_scripts", map[string]any{})
	require.False(t, result.IsError)
	var scripts []ports.Script
	require.NoError(t, json.Unmarshal([]byte(mcp.GetTextFromContent(result.Content[0])), &scripts))
	assert.Equal(t, []ports.Script{{ID: "ferry", Start: "Dock", Description: "A river crossing"}}, scripts)

	result = env.callTool(t, "get_graph", map[string]any{"script": "ferry"})
	require.False(t, result.IsError)
	var edges map[string][]string
	require.NoError(t, json.Unmarshal([]byte(mcp.GetTextFromContent(result.Content[0])), &edges))
	assert.Equal(t, map[string][]string{"Dock": {"Crossing", "Shore"}, "Crossing": {}, "Shore": {}}, edges)

	resp := env.rpc(t, "resources/read", map[string]any{"uri": spindlemcp.ScriptsURI})
	require.Nil(t, resp["error"])
	data, _ := json.Marshal(resp["result"])
	assert.Contains(t, string(data), "A river crossing")
}

func TestTools_Listed(t *testing.T) {
	env := newTestEnv(t)
	resp := env.rpc(t, "tools/list", map[string]any{})
	data, err := json.Marshal(resp["result"])
	require.NoError(t, err)

	for _, name := range []string{"start_dialog", "next_event", "make_decision", "reset_to", "list_scripts", "get_graph"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
