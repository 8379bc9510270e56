package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/session"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 45 * time.Second
	wsPingInterval = 15 * time.Second
)

// streamHandler pushes canvas change envelopes to WebSocket subscribers.
type streamHandler struct {
	server   *Server
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func (s *Server) newStreamHandler() http.Handler {
	return &streamHandler{
		server: s,
		logger: s.logger.With("component", "stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session query parameter required")
		return
	}
	if _, err := h.server.store.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load session failed")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	hub := h.server.manager.Hub()
	ch, cancel := hub.Subscribe(sessionID)
	h.server.metrics.ViewerConnected()
	h.logger.Info("stream subscriber connected",
		"session_id", sessionID, "subscribers", hub.SubscriberCount(sessionID))

	done := make(chan struct{})

	// Reader: the client sends nothing meaningful; consume frames to service
	// pongs and detect close.
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(conn, ch, done, sessionID)

	cancel()
	h.server.metrics.ViewerDisconnected()
	_ = conn.Close()
	h.logger.Info("stream subscriber disconnected",
		"session_id", sessionID, "subscribers", hub.SubscriberCount(sessionID))
}

func (h *streamHandler) writeLoop(conn *websocket.Conn, ch chan canvas.StreamMessage, done <-chan struct{}, sessionID string) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("stream write failed", "session_id", sessionID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
