// Package canvas implements the design-canvas state model: the staged-item
// store, derived selectors, the visualization history stack, and the change
// detector that decides between full and incremental re-renders.
package canvas

import (
	"fmt"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

// ItemKind discriminates the staged-item union.
type ItemKind string

const (
	KindProduct     ItemKind = "product"
	KindWallColor   ItemKind = "wall_color"
	KindWallTexture ItemKind = "wall_texture"
	KindFloorTile   ItemKind = "floor_tile"
)

// Singleton reports whether at most one item of this kind may be staged.
func (k ItemKind) Singleton() bool {
	switch k {
	case KindWallColor, KindWallTexture, KindFloorTile:
		return true
	}
	return false
}

// Item is one staged entry on the design canvas.
//
// Exactly one payload pointer is non-nil for a given Kind. Quantity is
// meaningful only for products; singleton kinds always carry quantity 1.
type Item struct {
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

// ItemID derives the stable store key for an entity of the given kind.
func ItemID(kind ItemKind, entityID string) string {
	return fmt.Sprintf("%s:%s", kind, entityID)
}

// EntityID returns the underlying catalog entity id for the item.
func (it *Item) EntityID() string {
	if it == nil {
		return ""
	}
	switch it.Kind {
	case KindProduct:
		if it.Product != nil {
			return it.Product.ID
		}
	case KindWallColor:
		if it.WallColor != nil {
			return it.WallColor.ID
		}
	case KindWallTexture:
		if it.Texture != nil {
			return it.Texture.ID
		}
	case KindFloorTile:
		if it.FloorTile != nil {
			return it.FloorTile.ID
		}
	}
	return ""
}

// clone returns a deep-enough copy for safe hand-out to callers.
func (it *Item) clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	if it.Product != nil {
		p := *it.Product
		c.Product = &p
	}
	if it.WallColor != nil {
		w := *it.WallColor
		c.WallColor = &w
	}
	if it.Texture != nil {
		t := *it.Texture
		c.Texture = &t
	}
	if it.ParentTexture != nil {
		pt := *it.ParentTexture
		pt.Variants = append([]models.TextureVariant(nil), it.ParentTexture.Variants...)
		c.ParentTexture = &pt
	}
	if it.FloorTile != nil {
		f := *it.FloorTile
		c.FloorTile = &f
	}
	return &c
}
