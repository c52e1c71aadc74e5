package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/pkg/player"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/session"
)

// ScriptsURI lists the library's scripts.
const ScriptsURI = "spindle://scripts"

// TurnResponse is returned by every tool that moves a session.
type TurnResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"Session to pass to later calls"`
	Event     map[string]any `json:"event" jsonschema_description:"The dialog event: type, speaker, text, tags, options"`
	State     string         `json:"state" jsonschema_description:"Runner state: start, dialog, waiting or end"`
	Node      string         `json:"node" jsonschema_description:"Node the cursor is on"`
	Line      int            `json:"line" jsonschema_description:"Line index inside the node"`
}

// Server exposes dialog sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	scripts   ports.ScriptLoader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, scripts ports.ScriptLoader, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		scripts:   scripts,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("spindle-mcp", strings.TrimSpace(spindle.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_dialog",
		mcp.WithDescription("Start a new session of a script and return its first event."),
		mcp.WithString("script", mcp.Required(), mcp.Description("Script ID, see list_scripts")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("next_event",
		mcp.WithDescription("Advance a session to its next event. While options are pending it returns a waiting event."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from start_dialog")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleNext))

	s.mcpServer.AddTool(mcp.NewTool("make_decision",
		mcp.WithDescription("Pick one of the pending options by its target node, then advance."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from start_dialog")),
		mcp.WithString("choice", mcp.Required(), mcp.Description("The 'node' field of one of the offered options")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleDecision))

	s.mcpServer.AddTool(mcp.NewTool("reset_to",
		mcp.WithDescription("Move a session to the first line of a node, then advance."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from start_dialog")),
		mcp.WithString("node", mcp.Required(), mcp.Description("Node title")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("list_scripts",
		mcp.WithDescription("List the scripts available to start_dialog."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.scriptList(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the nodes of a script and the nodes each one can reach."),
		mcp.WithString("script", mcp.Required(), mcp.Description("Script ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.graph(ctx, request.GetString("script", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	scriptID, _ := args["script"].(string)
	sess, err := s.sessions.Start(ctx, scriptID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.step(ctx, sess.ID, func(ctx context.Context, r ports.DialogRunner) (*player.Turn, error) {
		return player.Advance(ctx, r)
	})
}

func (s *Server) handleNext(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	id, _ := args["session_id"].(string)
	return s.step(ctx, id, func(ctx context.Context, r ports.DialogRunner) (*player.Turn, error) {
		return player.Advance(ctx, r)
	})
}

func (s *Server) handleDecision(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	id, _ := args["session_id"].(string)
	choice, _ := args["choice"].(string)

	clean, err := player.SanitizeInput(strings.TrimSpace(choice))
	if err != nil {
		s.logger.Warn("MCP Decision: Input rejected", "err", err, "size", len(choice))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.step(ctx, id, func(ctx context.Context, r ports.DialogRunner) (*player.Turn, error) {
		return player.DecideAndAdvance(ctx, r, clean)
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	id, _ := args["session_id"].(string)
	node, _ := args["node"].(string)
	return s.step(ctx, id, func(ctx context.Context, r ports.DialogRunner) (*player.Turn, error) {
		if err := r.ResetTo(node); err != nil {
			return nil, err
		}
		return player.Advance(ctx, r)
	})
}

// step runs fn on a session under its lock and shapes the result.
func (s *Server) step(ctx context.Context, sessionID string, fn func(context.Context, ports.DialogRunner) (*player.Turn, error)) (TurnResponse, error) {
	var turn *player.Turn
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context, sess *session.Session) error {
		var err error
		turn, err = fn(ctx, sess.Runner)
		return err
	})
	if err != nil {
		return TurnResponse{}, err
	}

	event, err := toMap(turn.Event)
	if err != nil {
		return TurnResponse{}, err
	}
	return TurnResponse{
		SessionID: sessionID,
		Event:     event,
		State:     turn.State.String(),
		Node:      turn.Cursor.Node,
		Line:      turn.Cursor.Line,
	}, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) scriptList(ctx context.Context) (string, error) {
	ids, err := s.scripts.ListScripts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list scripts: %w", err)
	}
	scripts := make([]ports.Script, 0, len(ids))
	for _, id := range ids {
		script, err := s.scripts.GetScript(ctx, id)
		if err != nil {
			return "", err
		}
		scripts = append(scripts, script)
	}
	data, err := json.Marshal(scripts)
	return string(data), err
}

func (s *Server) graph(ctx context.Context, scriptID string) (string, error) {
	dialog, _, err := spindle.LoadScript(ctx, s.scripts, scriptID)
	if err != nil {
		return "", err
	}
	edges := make(map[string][]string, dialog.Len())
	for _, title := range dialog.Titles() {
		edges[title] = dialog.Edges(title)
		if edges[title] == nil {
			edges[title] = []string{}
		}
	}
	data, err := json.Marshal(edges)
	return string(data), err
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ScriptsURI, "Dialog Scripts",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.scriptList(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ScriptsURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}
