package canvas

import (
	"sort"
	"sync"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

// Canvas is the authoritative store of staged items for one design session.
//
// Products are keyed by product id and carry a quantity; wall color, wall
// texture, and floor tile are singleton slots that replace atomically.
// Mutations are serialized under a mutex, so the net effect of interleaved
// rapid calls matches call order.
type Canvas struct {
	mu        sync.RWMutex
	products  map[string]*Item // keyed by Item.ID
	wallColor *Item
	texture   *Item
	floorTile *Item

	lastStamp time.Time
	watchers  map[chan ChangeEvent]struct{}
}

// ChangeEvent describes one store mutation for subscribers.
type ChangeEvent struct {
	Op     string    `json:"op"`
	ItemID string    `json:"item_id,omitempty"`
	Time   time.Time `json:"ts"`
}

// New creates an empty canvas.
func New() *Canvas {
	return &Canvas{
		products: map[string]*Item{},
		watchers: map[chan ChangeEvent]struct{}{},
	}
}

// stamp returns a strictly increasing timestamp for AddedAt ordering. UTC
// keeps the value stable across the JSON storage round trip.
// Must be called with c.mu held.
func (c *Canvas) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(c.lastStamp) {
		now = c.lastStamp.Add(time.Nanosecond)
	}
	c.lastStamp = now
	return now
}

// Watch registers a subscriber for mutation events. The returned cancel
// func must be called to release the channel. Slow subscribers drop events
// rather than block mutations.
func (c *Canvas) Watch() (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 16)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()
	cancel := func() {
		c.mu.Lock()
		if _, ok := c.watchers[ch]; ok {
			delete(c.watchers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked broadcasts a change event. Must be called with c.mu held.
func (c *Canvas) notifyLocked(op, itemID string) {
	ev := ChangeEvent{Op: op, ItemID: itemID, Time: time.Now()}
	for ch := range c.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// AddProduct stages a product. If the product is already staged its quantity
// is incremented. Returns the resulting quantity.
func (c *Canvas) AddProduct(p models.Product) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := ItemID(KindProduct, p.ID)
	if existing, ok := c.products[id]; ok {
		existing.Quantity++
		c.notifyLocked("product.increment", id)
		return existing.Quantity
	}
	prod := p
	c.products[id] = &Item{
		ID:       id,
		Kind:     KindProduct,
		Quantity: 1,
		AddedAt:  c.stamp(),
		Product:  &prod,
	}
	c.notifyLocked("product.add", id)
	return 1
}

// AddWallColor stages a wall color, replacing any existing one.
func (c *Canvas) AddWallColor(w models.WallColor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	color := w
	c.wallColor = &Item{
		ID:        ItemID(KindWallColor, w.ID),
		Kind:      KindWallColor,
		Quantity:  1,
		AddedAt:   c.stamp(),
		WallColor: &color,
	}
	c.notifyLocked("wall_color.set", c.wallColor.ID)
}

// AddTexture stages a wall texture variant, replacing any existing one.
func (c *Canvas) AddTexture(variant models.TextureVariant, parent models.WallTexture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, pt := variant, parent
	c.texture = &Item{
		ID:            ItemID(KindWallTexture, variant.ID),
		Kind:          KindWallTexture,
		Quantity:      1,
		AddedAt:       c.stamp(),
		Texture:       &v,
		ParentTexture: &pt,
	}
	c.notifyLocked("texture.set", c.texture.ID)
}

// AddFloorTile stages a floor tile, replacing any existing one.
func (c *Canvas) AddFloorTile(t models.FloorTile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tile := t
	c.floorTile = &Item{
		ID:        ItemID(KindFloorTile, t.ID),
		Kind:      KindFloorTile,
		Quantity:  1,
		AddedAt:   c.stamp(),
		FloorTile: &tile,
	}
	c.notifyLocked("floor_tile.set", c.floorTile.ID)
}

// RemoveItem removes the item with the given id. Unknown ids are a no-op.
func (c *Canvas) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Canvas) removeLocked(id string) bool {
	if _, ok := c.products[id]; ok {
		delete(c.products, id)
		c.notifyLocked("item.remove", id)
		return true
	}
	switch {
	case c.wallColor != nil && c.wallColor.ID == id:
		c.wallColor = nil
	case c.texture != nil && c.texture.ID == id:
		c.texture = nil
	case c.floorTile != nil && c.floorTile.ID == id:
		c.floorTile = nil
	default:
		return false
	}
	c.notifyLocked("item.remove", id)
	return true
}

// UpdateQuantity adds delta to the item's quantity. Non-product items and
// quantities dropping to zero or below remove the item instead.
func (c *Canvas) UpdateQuantity(id string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.products[id]
	if !ok {
		// Singleton kinds never hold a quantity other than 1.
		c.removeLocked(id)
		return
	}
	item.Quantity += delta
	if item.Quantity <= 0 {
		delete(c.products, id)
		c.notifyLocked("item.remove", id)
		return
	}
	c.notifyLocked("product.quantity", id)
}

// RemoveProduct decrements the staged quantity for a product, or deletes the
// entry outright when removeAll is set. Unknown products are a no-op.
func (c *Canvas) RemoveProduct(productID string, removeAll bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := ItemID(KindProduct, productID)
	item, ok := c.products[id]
	if !ok {
		return
	}
	if removeAll || item.Quantity <= 1 {
		delete(c.products, id)
		c.notifyLocked("item.remove", id)
		return
	}
	item.Quantity--
	c.notifyLocked("product.quantity", id)
}

// ClearAll empties the canvas unconditionally.
func (c *Canvas) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = map[string]*Item{}
	c.wallColor = nil
	c.texture = nil
	c.floorTile = nil
	c.notifyLocked("canvas.clear", "")
}

// SetItems replaces the entire canvas with the given items, used to restore
// a previously captured snapshot. Later items of a singleton kind win.
func (c *Canvas) SetItems(items []*Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = map[string]*Item{}
	c.wallColor = nil
	c.texture = nil
	c.floorTile = nil
	for _, it := range items {
		if it == nil {
			continue
		}
		cp := it.clone()
		if cp.Quantity < 1 {
			cp.Quantity = 1
		}
		if cp.AddedAt.After(c.lastStamp) {
			c.lastStamp = cp.AddedAt
		}
		switch cp.Kind {
		case KindProduct:
			c.products[cp.ID] = cp
		case KindWallColor:
			c.wallColor = cp
		case KindWallTexture:
			c.texture = cp
		case KindFloorTile:
			c.floorTile = cp
		}
	}
	c.notifyLocked("canvas.set", "")
}

// SetProducts replaces all staged products, leaving singleton kinds intact.
// Quantities default to 1 when the map has no entry for a product.
func (c *Canvas) SetProducts(products []models.Product, quantities map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = map[string]*Item{}
	for _, p := range products {
		prod := p
		qty := quantities[p.ID]
		if qty < 1 {
			qty = 1
		}
		id := ItemID(KindProduct, p.ID)
		c.products[id] = &Item{
			ID:       id,
			Kind:     KindProduct,
			Quantity: qty,
			AddedAt:  c.stamp(),
			Product:  &prod,
		}
	}
	c.notifyLocked("products.set", "")
}

// SetWallColor replaces the wall-color slot; nil clears it.
func (c *Canvas) SetWallColor(w *models.WallColor) {
	if w == nil {
		c.mu.Lock()
		c.wallColor = nil
		c.notifyLocked("wall_color.clear", "")
		c.mu.Unlock()
		return
	}
	c.AddWallColor(*w)
}

// SetTextureVariant replaces the texture slot; nil clears it.
func (c *Canvas) SetTextureVariant(variant *models.TextureVariant, parent *models.WallTexture) {
	if variant == nil {
		c.mu.Lock()
		c.texture = nil
		c.notifyLocked("texture.clear", "")
		c.mu.Unlock()
		return
	}
	var pt models.WallTexture
	if parent != nil {
		pt = *parent
	}
	c.AddTexture(*variant, pt)
}

// SetFloorTile replaces the floor-tile slot; nil clears it.
func (c *Canvas) SetFloorTile(t *models.FloorTile) {
	if t == nil {
		c.mu.Lock()
		c.floorTile = nil
		c.notifyLocked("floor_tile.clear", "")
		c.mu.Unlock()
		return
	}
	c.AddFloorTile(*t)
}

func sortByAdded(items []*Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
}

// Items returns all staged items sorted by AddedAt.
func (c *Canvas) Items() []*Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Item, 0, len(c.products)+3)
	for _, it := range c.products {
		out = append(out, it.clone())
	}
	for _, it := range []*Item{c.wallColor, c.texture, c.floorTile} {
		if it != nil {
			out = append(out, it.clone())
		}
	}
	sortByAdded(out)
	return out
}

// Products returns the staged product items sorted by AddedAt.
func (c *Canvas) Products() []*Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Item, 0, len(c.products))
	for _, it := range c.products {
		out = append(out, it.clone())
	}
	sortByAdded(out)
	return out
}

// WallColor returns the staged wall-color item, or nil.
func (c *Canvas) WallColor() *Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallColor.clone()
}

// TextureVariant returns the staged wall-texture item, or nil.
func (c *Canvas) TextureVariant() *Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.texture.clone()
}

// FloorTile returns the staged floor-tile item, or nil.
func (c *Canvas) FloorTile() *Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.floorTile.clone()
}

// TotalItemCount is the sum of product quantities plus one for each present
// singleton kind.
func (c *Canvas) TotalItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, it := range c.products {
		total += it.Quantity
	}
	for _, it := range []*Item{c.wallColor, c.texture, c.floorTile} {
		if it != nil {
			total++
		}
	}
	return total
}

// TotalPrice sums unit price times quantity over staged products. Products
// without a price contribute zero.
func (c *Canvas) TotalPrice() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0.0
	for _, it := range c.products {
		total += it.Product.UnitPrice() * float64(it.Quantity)
	}
	return total
}

// UniqueProductCount is the number of distinct staged products.
func (c *Canvas) UniqueProductCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Snapshot captures the current staged state for change detection, history,
// and render requests.
func (c *Canvas) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := &Snapshot{
		ProductIDs: map[string]struct{}{},
		Quantities: map[string]int{},
	}
	for _, it := range c.products {
		snap.Products = append(snap.Products, it.clone())
		pid := it.Product.ID
		snap.ProductIDs[pid] = struct{}{}
		snap.Quantities[pid] = it.Quantity
	}
	sortByAdded(snap.Products)
	if c.wallColor != nil {
		w := *c.wallColor.WallColor
		snap.WallColor = &w
	}
	if c.texture != nil {
		t := *c.texture.Texture
		snap.Texture = &t
	}
	if c.floorTile != nil {
		f := *c.floorTile.FloorTile
		snap.FloorTile = &f
	}
	return snap
}
