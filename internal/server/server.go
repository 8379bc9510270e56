// Package server exposes the RoomStage HTTP and WebSocket API.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomstage/roomstage/internal/analytics"
	"github.com/roomstage/roomstage/internal/auth"
	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/config"
	"github.com/roomstage/roomstage/internal/session"
	"github.com/roomstage/roomstage/internal/viz"
)

// Server wires the visualization manager, session store, and auth service
// behind the public API.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	manager   *viz.Manager
	store     session.Store
	auth      *auth.JWTService
	analytics *analytics.Batcher
	metrics   *canvas.Metrics

	httpServer *http.Server
	listener   net.Listener
}

// New assembles a server. The analytics batcher may be nil when analytics is
// disabled.
func New(cfg *config.Config, logger *slog.Logger, manager *viz.Manager, authService *auth.JWTService, batcher *analytics.Batcher) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger.With("component", "server"),
		manager:   manager,
		store:     manager.Store(),
		auth:      authService,
		analytics: batcher,
		metrics:   manager.Metrics(),
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Session creation issues the token, so it stays outside the auth wall.
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)

	protect := auth.Middleware(s.auth, s.logger)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	handle("GET /api/sessions/{id}", s.handleGetSession)
	handle("DELETE /api/sessions/{id}", s.handleDeleteSession)
	handle("GET /api/sessions/{id}/items", s.handleListItems)
	handle("POST /api/sessions/{id}/items", s.handleAddItem)
	handle("DELETE /api/sessions/{id}/items/{itemID}", s.handleRemoveItem)
	handle("PATCH /api/sessions/{id}/items/{itemID}/quantity", s.handleUpdateQuantity)
	handle("POST /api/sessions/{id}/visualize", s.handleVisualize)
	handle("POST /api/sessions/{id}/undo", s.handleUndo)
	handle("POST /api/sessions/{id}/redo", s.handleRedo)

	handle("GET /api/looks", s.handleListLooks)
	handle("POST /api/looks", s.handleSaveLook)
	handle("GET /api/looks/{id}", s.handleGetLook)
	handle("DELETE /api/looks/{id}", s.handleDeleteLook)

	mux.Handle("GET /ws", protect(s.newStreamHandler()))

	return s.logRequests(mux)
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort)

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	s.httpServer = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("starting http server", "addr", addr)
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	shutdownCtx := ctx
	var cancel context.CancelFunc
	if shutdownCtx == nil {
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown error", "error", err)
	}
	s.httpServer = nil
	s.listener = nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// logRequests emits one slog line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps WebSocket upgrades working through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}
