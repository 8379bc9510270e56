// Package models provides domain types for the RoomStage design service.
package models

import "time"

// Product is a purchasable catalog item from one of the partner stores.
type Product struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Store     string   `json:"store"`
	Category  string   `json:"category,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	ThumbURL  string   `json:"thumb_url,omitempty"`
	URL       string   `json:"url,omitempty"`
	InStock   bool     `json:"in_stock,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// UnitPrice returns the product price, treating a missing price as zero.
func (p *Product) UnitPrice() float64 {
	if p == nil || p.Price == nil {
		return 0
	}
	return *p.Price
}

// WallColor is a paint color from a supported brand palette.
type WallColor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Hex   string `json:"hex"`
	Code  string `json:"code,omitempty"`
	Brand string `json:"brand,omitempty"`
}

// WallTexture is a textured wall finish with one or more variants.
type WallTexture struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Brand    string           `json:"brand,omitempty"`
	Variants []TextureVariant `json:"variants,omitempty"`
}

// TextureVariant is a single colorway/pattern of a wall texture.
type TextureVariant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Hex      string `json:"hex,omitempty"`
}

// FloorTile is a floor finish option.
type FloorTile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	SizeCM   string   `json:"size_cm,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// CuratedLook is an editor-assembled room look users can apply to a canvas.
type CuratedLook struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Styles     []string   `json:"styles,omitempty"`
	HeroImage  string     `json:"hero_image,omitempty"`
	ProductIDs []string   `json:"product_ids"`
	WallColor  *WallColor `json:"wall_color,omitempty"`
	FloorTile  *FloorTile `json:"floor_tile,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}
