// Package media prepares visualization images for delivery: thumbnail
// generation for the history strip and basic metadata extraction.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
)

// Defaults for history-strip thumbnails.
const (
	DefaultThumbMaxSide = 320
	DefaultThumbQuality = 80
)

// ThumbnailOptions controls thumbnail generation.
type ThumbnailOptions struct {
	MaxSide int
	Quality int
}

// Thumbnail is a downscaled JPEG rendition of a visualization image.
type Thumbnail struct {
	Buffer      []byte
	ContentType string
	Width       int
	Height      int
}

// MakeThumbnail downscales a rendered image so its longest side fits
// MaxSide, preserving aspect ratio, and re-encodes it as JPEG. Images
// already within bounds are still re-encoded so the history strip serves a
// uniform content type.
func MakeThumbnail(data []byte, opts *ThumbnailOptions) (*Thumbnail, error) {
	maxSide := DefaultThumbMaxSide
	quality := DefaultThumbQuality
	if opts != nil {
		if opts.MaxSide > 0 {
			maxSide = opts.MaxSide
		}
		if opts.Quality > 0 {
			quality = opts.Quality
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	newWidth, newHeight := width, height
	if width > maxSide || height > maxSide {
		if width > height {
			newWidth = maxSide
			newHeight = int(float64(height) * float64(maxSide) / float64(width))
		} else {
			newHeight = maxSide
			newWidth = int(float64(width) * float64(maxSide) / float64(height))
		}
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
	}

	scaled := img
	if newWidth != width || newHeight != height {
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		scaled = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Buffer:      buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       newWidth,
		Height:      newHeight,
	}, nil
}

// ImageMetadata contains basic image information.
type ImageMetadata struct {
	Width  int
	Height int
	Format string
}

// GetImageMetadata extracts image dimensions without a full decode.
func GetImageMetadata(data []byte) (*ImageMetadata, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ImageMetadata{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}, nil
}
