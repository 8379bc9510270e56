package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/roomstage/roomstage/internal/analytics"
	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/session"
	"github.com/roomstage/roomstage/internal/viz"
	"github.com/roomstage/roomstage/pkg/models"
)

type createSessionRequest struct {
	OwnerID   string `json:"owner_id,omitempty"`
	RoomPhoto string `json:"room_photo,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	RoomPhoto string    `json:"room_photo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	sess := &session.Session{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		RoomPhoto: req.RoomPhoto,
	}
	if sess.OwnerID == "" {
		sess.OwnerID = uuid.NewString()
	}
	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		s.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create session failed")
		return
	}

	resp := sessionResponse{
		ID:        sess.ID,
		OwnerID:   sess.OwnerID,
		RoomPhoto: sess.RoomPhoto,
		CreatedAt: sess.CreatedAt,
	}
	if s.auth.Enabled() {
		token, err := s.auth.Generate(&models.User{ID: sess.OwnerID, Email: req.Email, Name: req.Name})
		if err != nil {
			s.logger.Error("issue token failed", "error", err)
			writeError(w, http.StatusInternalServerError, "issue token failed")
			return
		}
		resp.Token = token
	}

	s.track(sess.ID, "session_created", nil)
	s.logger.Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, resp)
}

type sessionDetailResponse struct {
	Session sessionResponse           `json:"session"`
	Items   []canvas.SerializableItem `json:"items"`
	Summary sessionSummary            `json:"summary"`
}

type sessionSummary struct {
	TotalItems     int     `json:"total_items"`
	UniqueProducts int     `json:"unique_products"`
	TotalPrice     float64 `json:"total_price"`
	CanUndo        bool    `json:"can_undo"`
	CanRedo        bool    `json:"can_redo"`
	HistoryLen     int     `json:"history_len"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rt, sess, ok := s.runtime(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionDetailResponse{
		Session: sessionResponse{
			ID:        sess.ID,
			OwnerID:   sess.OwnerID,
			RoomPhoto: sess.RoomPhoto,
			CreatedAt: sess.CreatedAt,
		},
		Items:   canvas.ItemsToSerializable(rt.Canvas.Items()),
		Summary: summarize(rt),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Evict(r.Context(), id); err != nil {
		s.logger.Warn("evict before delete failed", "session_id", id, "error", err)
	}
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("delete session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete session failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runtime resolves the path session id to a live runtime, writing the error
// response itself when the session is unknown.
func (s *Server) runtime(w http.ResponseWriter, r *http.Request) (*viz.Runtime, *session.Session, bool) {
	id := r.PathValue("id")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
		} else {
			s.logger.Error("load session failed", "session_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "load session failed")
		}
		return nil, nil, false
	}
	rt, err := s.manager.Runtime(r.Context(), id)
	if err != nil {
		s.logger.Error("load runtime failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "load session failed")
		return nil, nil, false
	}
	return rt, sess, true
}

func summarize(rt *viz.Runtime) sessionSummary {
	return sessionSummary{
		TotalItems:     rt.Canvas.TotalItemCount(),
		UniqueProducts: rt.Canvas.UniqueProductCount(),
		TotalPrice:     rt.Canvas.TotalPrice(),
		CanUndo:        rt.History.CanUndo(),
		CanRedo:        rt.History.CanRedo(),
		HistoryLen:     rt.History.Len(),
	}
}

func (s *Server) track(sessionID, name string, props map[string]any) {
	if s.analytics == nil {
		return
	}
	s.analytics.Track(&analytics.Event{
		SessionID: sessionID,
		Name:      name,
		Props:     props,
		Time:      time.Now(),
	})
}
