package canvas

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

// SerializableItem is the storage/wire form of a staged item. It matches
// Item field for field; the split type keeps the persisted schema explicit
// and independent of in-memory representation changes.
type SerializableItem struct {
	ID       string    `json:"id"`
	Kind     ItemKind  `json:"kind"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`

	Product       *models.Product        `json:"product,omitempty"`
	WallColor     *models.WallColor      `json:"wall_color,omitempty"`
	Texture       *models.TextureVariant `json:"texture,omitempty"`
	ParentTexture *models.WallTexture    `json:"parent_texture,omitempty"`
	FloorTile     *models.FloorTile      `json:"floor_tile,omitempty"`
}

// SerializableHistoryEntry is the storage/wire form of a history entry.
// The product-id set becomes a sorted array and the quantity map a plain
// JSON object.
type SerializableHistoryEntry struct {
	Image      []byte             `json:"image"`
	MimeType   string             `json:"mime_type,omitempty"`
	Products   []SerializableItem `json:"products"`
	ProductIDs []string           `json:"product_ids"`
	Quantities map[string]int     `json:"quantities"`
	WallColor  *models.WallColor  `json:"wall_color,omitempty"`
	RenderedAt time.Time          `json:"rendered_at"`
}

// SerializableHistory is the storage/wire form of the full undo/redo stack.
type SerializableHistory struct {
	Entries []SerializableHistoryEntry `json:"entries"`
	Cursor  int                        `json:"cursor"`
}

// ToSerializable converts an item to its storage form.
func (it *Item) ToSerializable() SerializableItem {
	c := it.clone()
	return SerializableItem{
		ID:            c.ID,
		Kind:          c.Kind,
		Quantity:      c.Quantity,
		AddedAt:       c.AddedAt,
		Product:       c.Product,
		WallColor:     c.WallColor,
		Texture:       c.Texture,
		ParentTexture: c.ParentTexture,
		FloorTile:     c.FloorTile,
	}
}

// Item converts the storage form back to an in-memory item.
func (s SerializableItem) Item() *Item {
	it := &Item{
		ID:            s.ID,
		Kind:          s.Kind,
		Quantity:      s.Quantity,
		AddedAt:       s.AddedAt,
		Product:       s.Product,
		WallColor:     s.WallColor,
		Texture:       s.Texture,
		ParentTexture: s.ParentTexture,
		FloorTile:     s.FloorTile,
	}
	return it.clone()
}

// ItemsToSerializable converts a staged item list to storage form.
func ItemsToSerializable(items []*Item) []SerializableItem {
	out := make([]SerializableItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it.ToSerializable())
		}
	}
	return out
}

// ItemsFromSerializable converts storage-form items back to staged items.
func ItemsFromSerializable(items []SerializableItem) []*Item {
	out := make([]*Item, 0, len(items))
	for _, s := range items {
		out = append(out, s.Item())
	}
	return out
}

// ToSerializable converts a history entry to storage form.
func (e *HistoryEntry) ToSerializable() SerializableHistoryEntry {
	s := SerializableHistoryEntry{
		Image:      append([]byte(nil), e.Image...),
		MimeType:   e.MimeType,
		Products:   ItemsToSerializable(e.Products),
		Quantities: map[string]int{},
		RenderedAt: e.RenderedAt,
	}
	for id := range e.ProductIDs {
		s.ProductIDs = append(s.ProductIDs, id)
	}
	sort.Strings(s.ProductIDs)
	for id, qty := range e.Quantities {
		s.Quantities[id] = qty
	}
	if e.WallColor != nil {
		w := *e.WallColor
		s.WallColor = &w
	}
	return s
}

// Entry converts the storage form back to a history entry, rebuilding the
// product-id set and quantity map.
func (s SerializableHistoryEntry) Entry() *HistoryEntry {
	e := &HistoryEntry{
		Image:      append([]byte(nil), s.Image...),
		MimeType:   s.MimeType,
		Products:   ItemsFromSerializable(s.Products),
		ProductIDs: map[string]struct{}{},
		Quantities: map[string]int{},
		WallColor:  s.WallColor,
		RenderedAt: s.RenderedAt,
	}
	for _, id := range s.ProductIDs {
		e.ProductIDs[id] = struct{}{}
	}
	for id, qty := range s.Quantities {
		e.Quantities[id] = qty
	}
	return e
}

// ToSerializable converts the history stack, including the cursor, so a
// restored session resumes exactly where it left off.
func (h *History) ToSerializable() SerializableHistory {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := SerializableHistory{Cursor: h.cursor}
	for _, e := range h.entries {
		out.Entries = append(out.Entries, e.ToSerializable())
	}
	return out
}

// HistoryFromSerializable rebuilds a history stack from storage form.
func HistoryFromSerializable(s SerializableHistory) *History {
	h := NewHistory()
	for _, se := range s.Entries {
		h.entries = append(h.entries, se.Entry())
	}
	h.cursor = s.Cursor
	if h.cursor >= len(h.entries) {
		h.cursor = len(h.entries) - 1
	}
	if h.cursor < -1 {
		h.cursor = -1
	}
	return h
}

// EncodeItems marshals staged items to their canonical JSON storage form.
func EncodeItems(items []*Item) (json.RawMessage, error) {
	return json.Marshal(ItemsToSerializable(items))
}

// DecodeItems unmarshals the canonical JSON storage form.
func DecodeItems(data json.RawMessage) ([]*Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var ser []SerializableItem
	if err := json.Unmarshal(data, &ser); err != nil {
		return nil, err
	}
	return ItemsFromSerializable(ser), nil
}
