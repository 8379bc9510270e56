package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/roomstage/roomstage/internal/auth"
	"github.com/roomstage/roomstage/internal/looks"
	"github.com/roomstage/roomstage/internal/session"
)

type savedLookResponse struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id,omitempty"`
	Title     string          `json:"title"`
	Look      json.RawMessage `json:"look"`
	CreatedAt time.Time       `json:"created_at"`
}

func lookResponse(l *session.SavedLook) savedLookResponse {
	return savedLookResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Title:     l.Title,
		Look:      l.LookJSON,
		CreatedAt: l.CreatedAt,
	}
}

// ownerID prefers the authenticated user, falling back to the owner query
// parameter when auth is disabled.
func (s *Server) ownerID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.ID
	}
	return r.URL.Query().Get("owner")
}

func (s *Server) handleSaveLook(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request failed")
		return
	}

	look, err := looks.Decode(doc)
	if err != nil {
		if errors.Is(err, looks.ErrInvalidLook) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("decode look failed", "error", err)
		writeError(w, http.StatusInternalServerError, "decode look failed")
		return
	}

	saved := &session.SavedLook{
		ID:       uuid.NewString(),
		OwnerID:  s.ownerID(r),
		Title:    look.Title,
		LookJSON: doc,
	}
	if err := s.store.SaveLook(r.Context(), saved); err != nil {
		s.logger.Error("save look failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save look failed")
		return
	}

	s.logger.Info("look saved", "look_id", saved.ID, "title", saved.Title)
	writeJSON(w, http.StatusCreated, lookResponse(saved))
}

func (s *Server) handleListLooks(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.ListLooks(r.Context(), s.ownerID(r))
	if err != nil {
		s.logger.Error("list looks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list looks failed")
		return
	}
	out := make([]savedLookResponse, 0, len(stored))
	for _, l := range stored {
		out = append(out, lookResponse(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"looks": out})
}

func (s *Server) handleGetLook(w http.ResponseWriter, r *http.Request) {
	look, err := s.store.GetLook(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "look not found")
			return
		}
		s.logger.Error("get look failed", "error", err)
		writeError(w, http.StatusInternalServerError, "get look failed")
		return
	}
	writeJSON(w, http.StatusOK, lookResponse(look))
}

func (s *Server) handleDeleteLook(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLook(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "look not found")
			return
		}
		s.logger.Error("delete look failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delete look failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
