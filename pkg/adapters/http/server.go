package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/player"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/session"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Server implements the generated ServerInterface over a session manager.
type Server struct {
	Sessions *session.Manager
	Scripts  ports.ScriptLoader
	Streams  *StreamManager
	Logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the handler.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics mounts h (usually promhttp.Handler) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(c *config) {
		c.metrics = h
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(sessions *session.Manager, scripts ports.ScriptLoader, opts ...Option) http.Handler {
	cfg := &config{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		Sessions: sessions,
		Scripts:  scripts,
		Streams:  NewStreamManager(cfg.logger),
		Logger:   cfg.logger,
	}

	r := chi.NewRouter()
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	handler := HandlerWithOptions(s, ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: s.paramError,
	})
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID        string             `json:"id"`
	Script    string             `json:"script"`
	State     domain.DialogState `json:"state"`
	Cursor    domain.Cursor      `json:"cursor"`
	Pending   []domain.Option    `json:"pending,omitempty"`
	Variables map[string]bool    `json:"variables,omitempty"`
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <title>Spindle API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
        window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' });
    };
</script>
</body>
</html>
`

// GetSpec serves the embedded OpenAPI document.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := rawSpec()
	if err != nil {
		s.Logger.Error("failed to load OpenAPI spec", "err", err)
		http.Error(w, "Failed to load spec", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(spec)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "spindle-http",
		"version":     strings.TrimSpace(spindle.Version),
		"api_version": apiVersion,
	})
}

// ListScripts handles GET /scripts.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Scripts.ListScripts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GraphView lists a script's nodes and their outgoing edges.
type GraphView struct {
	Script string              `json:"script"`
	Start  string              `json:"start,omitempty"`
	Nodes  []string            `json:"nodes"`
	Edges  map[string][]string `json:"edges"`
}

// GetGraph handles GET /scripts/{scriptId}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, id string) {
	dialog, script, err := spindle.LoadScript(r.Context(), s.Scripts, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view := GraphView{Script: id, Start: script.Start, Nodes: dialog.Titles(), Edges: map[string][]string{}}
	for _, title := range view.Nodes {
		view.Edges[title] = dialog.Edges(title)
	}
	s.writeJSON(w, http.StatusOK, view)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Sessions.List())
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionJSONRequestBody
	if err := decode(r, &body); err != nil || body.Script == "" {
		http.Error(w, "Invalid request body: script is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.Start(r.Context(), body.Script)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.view(r, sess))
}

// GetSession handles GET /sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id SessionId) {
	var view SessionView
	err := s.Sessions.WithLock(r.Context(), id, func(_ context.Context, sess *session.Session) error {
		view = s.view(r, sess)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /sessions/{sessionId}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id SessionId) {
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// NextEvent handles POST /sessions/{sessionId}/next.
func (s *Server) NextEvent(w http.ResponseWriter, r *http.Request, id SessionId) {
	var turn *player.Turn
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		var err error
		turn, err = player.Advance(ctx, sess.Runner)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcast(id, turn)
	s.writeJSON(w, http.StatusOK, turn)
}

// MakeDecision handles POST /sessions/{sessionId}/decision.
// The body names a target node ("choice") or a position in the last options event ("index").
func (s *Server) MakeDecision(w http.ResponseWriter, r *http.Request, id SessionId) {
	var body MakeDecisionJSONRequestBody
	if err := decode(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var raw string
	if body.Choice != nil {
		raw = *body.Choice
	}
	choice, err := player.SanitizeInput(strings.TrimSpace(raw))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.Logger.Warn("MakeDecision: Input rejected", "err", err, "size", len(raw))
		return
	}
	if choice == "" && body.Index == nil {
		http.Error(w, "Invalid request body: choice or index is required", http.StatusBadRequest)
		return
	}

	var view SessionView
	err = s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		var err error
		if body.Index != nil {
			err = sess.Runner.Choose(ctx, *body.Index)
		} else {
			err = sess.Runner.MakeDecision(ctx, choice)
		}
		if err != nil {
			return err
		}
		view = s.view(r, sess)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// ResetTo handles POST /sessions/{sessionId}/reset.
func (s *Server) ResetTo(w http.ResponseWriter, r *http.Request, id SessionId) {
	var body ResetToJSONRequestBody
	if err := decode(r, &body); err != nil || body.Node == "" {
		http.Error(w, "Invalid request body: node is required", http.StatusBadRequest)
		return
	}

	var view SessionView
	err := s.Sessions.WithLock(r.Context(), id, func(_ context.Context, sess *session.Session) error {
		if err := sess.Runner.ResetTo(body.Node); err != nil {
			return err
		}
		view = s.view(r, sess)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) view(r *http.Request, sess *session.Session) SessionView {
	v := SessionView{
		ID:     sess.ID,
		Script: sess.ScriptID,
		State:  sess.Runner.State(),
		Cursor: sess.Runner.Cursor(),
	}
	if p, ok := sess.Runner.(interface{ Pending() []domain.Option }); ok {
		v.Pending = p.Pending()
	}
	if lister, ok := sess.Variables.(ports.VariableLister); ok {
		vars, err := lister.Snapshot(r.Context())
		if err != nil {
			s.Logger.Warn("failed to snapshot variables", "session_id", sess.ID, "err", err)
		} else {
			v.Variables = vars
		}
	}
	return v
}

func (s *Server) broadcast(sessionID string, turn *player.Turn) {
	data, err := json.Marshal(turn)
	if err != nil {
		s.Logger.Error("failed to encode turn", "session_id", sessionID, "err", err)
		return
	}
	s.Streams.Broadcast(sessionID, string(data))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, int64(player.DefaultMaxInputSize)*4))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// paramError reports path parameters the generated wrapper could not bind.
func (s *Server) paramError(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.Debug("request rejected", "path", r.URL.Path, "err", err)
	s.writeJSON(w, http.StatusBadRequest, Error{Error: err.Error()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "err", err)
	} else {
		s.Logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, Error{Error: err.Error()})
}

// StatusFor maps runner and library errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrDialogNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWrongState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownChoice),
		errors.Is(err, domain.ErrParse),
		errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrStartingNodeNotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
