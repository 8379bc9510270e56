package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/client"
	"github.com/roomstage/roomstage/internal/media"
	"github.com/roomstage/roomstage/internal/viz"
	"github.com/roomstage/roomstage/pkg/models"
)

type renderResponse struct {
	Kind       canvas.ChangeKind `json:"kind"`
	Image      []byte            `json:"image,omitempty"`
	MimeType   string            `json:"mime_type,omitempty"`
	Thumbnail  []byte            `json:"thumbnail,omitempty"`
	ThumbMime  string            `json:"thumbnail_mime,omitempty"`
	WallColor  *models.WallColor `json:"wall_color,omitempty"`
	RenderedAt time.Time         `json:"rendered_at,omitempty"`
	Summary    sessionSummary    `json:"summary"`
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}

	entry, change, err := s.manager.Visualize(r.Context(), rt)
	if err != nil {
		s.writeRenderError(w, rt.SessionID, err)
		return
	}

	s.track(rt.SessionID, "visualize", map[string]any{"kind": string(change.Kind)})
	writeJSON(w, http.StatusOK, s.renderResponse(change.Kind, entry, rt))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	entry, err := s.manager.Undo(r.Context(), rt)
	if err != nil {
		s.logger.Error("undo failed", "session_id", rt.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "undo failed")
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"moved": false, "summary": summarize(rt)})
		return
	}
	s.track(rt.SessionID, "undo", nil)
	writeJSON(w, http.StatusOK, s.renderResponse("", entry, rt))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	entry, err := s.manager.Redo(r.Context(), rt)
	if err != nil {
		s.logger.Error("redo failed", "session_id", rt.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "redo failed")
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"moved": false, "summary": summarize(rt)})
		return
	}
	s.track(rt.SessionID, "redo", nil)
	writeJSON(w, http.StatusOK, s.renderResponse("", entry, rt))
}

func (s *Server) renderResponse(kind canvas.ChangeKind, entry *canvas.HistoryEntry, rt *viz.Runtime) renderResponse {
	resp := renderResponse{
		Kind:    kind,
		Summary: summarize(rt),
	}
	if entry == nil {
		return resp
	}
	resp.Image = entry.Image
	resp.MimeType = entry.MimeType
	resp.WallColor = entry.WallColor
	resp.RenderedAt = entry.RenderedAt
	if len(entry.Image) > 0 {
		// Thumbnail generation is best effort; the full image is the payload.
		if thumb, err := media.MakeThumbnail(entry.Image, nil); err == nil {
			resp.Thumbnail = thumb.Buffer
			resp.ThumbMime = thumb.ContentType
		}
	}
	return resp
}

func (s *Server) writeRenderError(w http.ResponseWriter, sessionID string, err error) {
	s.logger.Error("visualize failed", "session_id", sessionID, "error", err)
	switch {
	case errors.Is(err, viz.ErrPollTimeout):
		writeError(w, http.StatusGatewayTimeout, "generation timed out")
	case errors.Is(err, viz.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "generation failed")
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			writeError(w, http.StatusBadGateway, apiErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "render backend unavailable")
	}
}
