// Package server exposes a fieldmap Registry over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/skosovsky/fieldmap"
)

// CallIDHeader carries the caller's call ID; a UUID is generated when it is absent.
const CallIDHeader = "X-Call-ID"

const defaultMaxBodyBytes = 1 << 20

// Server routes HTTP requests to registry tools.
type Server struct {
	router       *chi.Mux
	registry     *fieldmap.Registry
	logger       *slog.Logger
	origins      []string
	maxBodyBytes int64
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins sets CORS origins. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxBodyBytes limits the size of a call body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// New creates a server for reg.
func New(reg *fieldmap.Registry, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		registry:     reg,
		logger:       slog.Default(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", CallIDHeader},
		ExposedHeaders: []string{CallIDHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.healthHandler)
	s.router.Get("/tools", s.listToolsHandler)
	s.router.Post("/tools/{name}", s.callHandler)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then drains connections and shuts the registry down.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	err := srv.Shutdown(shutdownCtx)
	if regErr := s.registry.Shutdown(shutdownCtx); regErr != nil {
		err = errors.Join(err, regErr)
	}
	if listenErr := <-errCh; !errors.Is(listenErr, http.ErrServerClosed) {
		err = errors.Join(err, listenErr)
	}
	return err
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ToolInfo describes one registered tool for discovery.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Dangerous   bool           `json:"dangerous,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Describe lists the registry's tools, sorted by name.
func Describe(reg *fieldmap.Registry) []ToolInfo {
	tools := reg.GetAllTools()
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		info := ToolInfo{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
		if meta, ok := t.(fieldmap.ToolMetadata); ok {
			info.Version = meta.Version()
			info.Tags = meta.Tags()
			info.Dangerous = meta.IsDangerous()
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) listToolsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Describe(s.registry))
}

func (s *Server) callHandler(w http.ResponseWriter, r *http.Request) {
	callID := r.Header.Get(CallIDHeader)
	if callID == "" {
		callID = uuid.New().String()
	}
	w.Header().Set(CallIDHeader, callID)
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		status, msg := http.StatusBadRequest, "failed to read request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, msg = http.StatusRequestEntityTooLarge, "request body too large"
		}
		writeJSON(w, status, fieldmap.Envelope{CallID: callID, Tool: name, Error: msg})
		return
	}

	ctx := r.Context()
	if creds, ok := bearerCredentials(r); ok {
		ctx = fieldmap.WithCredentials(ctx, creds)
	}
	res := s.registry.Execute(ctx, fieldmap.ToolCall{ID: callID, ToolName: name, Args: body})
	status := StatusFor(res.Error)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "tool call failed", "tool", name, "call_id", callID, "error", res.Error)
	}
	writeJSON(w, status, fieldmap.NewEnvelope(res))
}

// StatusFor maps a ToolResult error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, fieldmap.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, fieldmap.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, fieldmap.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, fieldmap.ErrTimeout):
		return http.StatusGatewayTimeout
	case fieldmap.IsClientError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// bearerCredentials extracts an "Authorization: Bearer <token>" header; other schemes are ignored.
func bearerCredentials(r *http.Request) (fieldmap.Credentials, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return fieldmap.Credentials{}, false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return fieldmap.Credentials{}, false
	}
	return fieldmap.Credentials{Scheme: scheme, Token: strings.TrimSpace(token)}, true
}
