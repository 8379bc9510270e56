package canvas

import (
	"sync"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

// HistoryEntry is an immutable record of one accepted visualization: the
// rendered image plus everything needed to restore the canvas state it was
// rendered from. The quantity map is mandatory; without it, undo/redo would
// misreport quantity-only differences as needing a re-render.
type HistoryEntry struct {
	// Image is the encoded composite bitmap returned by the backend.
	Image    []byte
	MimeType string

	Products   []*Item
	ProductIDs map[string]struct{}
	Quantities map[string]int
	WallColor  *models.WallColor

	RenderedAt time.Time
}

// Snapshot converts the entry back into a comparable staged snapshot.
func (e *HistoryEntry) Snapshot() *Snapshot {
	if e == nil {
		return nil
	}
	snap := &Snapshot{
		Products:   append([]*Item(nil), e.Products...),
		ProductIDs: map[string]struct{}{},
		Quantities: map[string]int{},
		WallColor:  e.WallColor,
	}
	for id := range e.ProductIDs {
		snap.ProductIDs[id] = struct{}{}
	}
	for id, qty := range e.Quantities {
		snap.Quantities[id] = qty
	}
	return snap
}

// History is the visualization undo/redo stack. A cursor tracks the entry
// currently shown; pushing while the cursor is not at the tail truncates the
// redo tail first.
type History struct {
	mu      sync.Mutex
	entries []*HistoryEntry
	// cursor indexes the active entry; -1 when the stack is empty.
	cursor int
}

// NewHistory creates an empty history stack.
func NewHistory() *History {
	return &History{cursor: -1}
}

// Push appends a new entry and moves the cursor to it. Entries after the
// previous cursor position are discarded.
func (h *History) Push(entry *HistoryEntry) {
	if entry == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < len(h.entries)-1 {
		h.entries = h.entries[:h.cursor+1]
	}
	h.entries = append(h.entries, entry)
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor one entry back and returns the now-active entry.
// At the first entry (or when empty) the cursor stays put.
func (h *History) Undo() *HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor > 0 {
		h.cursor--
	}
	return h.currentLocked()
}

// Redo moves the cursor one entry forward and returns the now-active entry.
// At the tail the cursor stays put.
func (h *History) Redo() *HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < len(h.entries)-1 {
		h.cursor++
	}
	return h.currentLocked()
}

// Current returns the active entry, or nil when the stack is empty.
func (h *History) Current() *HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentLocked()
}

func (h *History) currentLocked() *HistoryEntry {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return nil
	}
	return h.entries[h.cursor]
}

// CanUndo reports whether the cursor can move back.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo reports whether the cursor can move forward.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Reset drops all entries, used on full canvas reset or navigation away.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.cursor = -1
}

// Entries returns the retained entries in order, oldest first.
func (h *History) Entries() []*HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*HistoryEntry(nil), h.entries...)
}
