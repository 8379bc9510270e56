package server

import (
	"net/http"

	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/viz"
	"github.com/roomstage/roomstage/pkg/models"
)

type addItemRequest struct {
	Kind canvas.ItemKind `json:"kind"`

	Product       *models.Product        `json:"product,omitempty"`
	WallColor     *models.WallColor      `json:"wall_color,omitempty"`
	Texture       *models.TextureVariant `json:"texture,omitempty"`
	ParentTexture *models.WallTexture    `json:"parent_texture,omitempty"`
	FloorTile     *models.FloorTile      `json:"floor_tile,omitempty"`
}

type itemMutationResponse struct {
	ItemID   string         `json:"item_id,omitempty"`
	Quantity int            `json:"quantity,omitempty"`
	Summary  sessionSummary `json:"summary"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   canvas.ItemsToSerializable(rt.Canvas.Items()),
		"summary": summarize(rt),
	})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		itemID   string
		quantity = 1
		event    string
	)
	switch req.Kind {
	case canvas.KindProduct:
		if req.Product == nil || req.Product.ID == "" {
			writeError(w, http.StatusBadRequest, "product payload required")
			return
		}
		quantity = rt.Canvas.AddProduct(*req.Product)
		itemID = canvas.ItemID(canvas.KindProduct, req.Product.ID)
		event = "product_added"
	case canvas.KindWallColor:
		if req.WallColor == nil || req.WallColor.ID == "" {
			writeError(w, http.StatusBadRequest, "wall_color payload required")
			return
		}
		rt.Canvas.AddWallColor(*req.WallColor)
		itemID = canvas.ItemID(canvas.KindWallColor, req.WallColor.ID)
		event = "wall_color_added"
	case canvas.KindWallTexture:
		if req.Texture == nil || req.Texture.ID == "" {
			writeError(w, http.StatusBadRequest, "texture payload required")
			return
		}
		var parent models.WallTexture
		if req.ParentTexture != nil {
			parent = *req.ParentTexture
		}
		rt.Canvas.AddTexture(*req.Texture, parent)
		itemID = canvas.ItemID(canvas.KindWallTexture, req.Texture.ID)
		event = "texture_added"
	case canvas.KindFloorTile:
		if req.FloorTile == nil || req.FloorTile.ID == "" {
			writeError(w, http.StatusBadRequest, "floor_tile payload required")
			return
		}
		rt.Canvas.AddFloorTile(*req.FloorTile)
		itemID = canvas.ItemID(canvas.KindFloorTile, req.FloorTile.ID)
		event = "floor_tile_added"
	default:
		writeError(w, http.StatusBadRequest, "unknown item kind")
		return
	}

	s.afterMutation(r, rt, event, itemID)
	writeJSON(w, http.StatusOK, itemMutationResponse{
		ItemID:   itemID,
		Quantity: quantity,
		Summary:  summarize(rt),
	})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("itemID")
	rt.Canvas.RemoveItem(itemID)

	s.afterMutation(r, rt, "item_removed", itemID)
	writeJSON(w, http.StatusOK, itemMutationResponse{
		ItemID:  itemID,
		Summary: summarize(rt),
	})
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	rt, _, ok := s.runtime(w, r)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}
	itemID := r.PathValue("itemID")
	rt.Canvas.UpdateQuantity(itemID, req.Delta)

	s.afterMutation(r, rt, "quantity_changed", itemID)
	writeJSON(w, http.StatusOK, itemMutationResponse{
		ItemID:  itemID,
		Summary: summarize(rt),
	})
}

// afterMutation records, persists, and broadcasts one canvas change.
func (s *Server) afterMutation(r *http.Request, rt *viz.Runtime, event, itemID string) {
	s.metrics.RecordMutation()
	s.track(rt.SessionID, event, map[string]any{"item_id": itemID})
	s.manager.Broadcast(rt.SessionID, "canvas", map[string]any{
		"event":   event,
		"item_id": itemID,
	})
	if err := s.manager.Persist(r.Context(), rt); err != nil {
		s.logger.Warn("persist after mutation failed", "session_id", rt.SessionID, "error", err)
	}
}
