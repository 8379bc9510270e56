package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestMakeThumbnailDownscalesLandscape(t *testing.T) {
	data := encodePNG(t, 1600, 900)

	thumb, err := MakeThumbnail(data, nil)
	if err != nil {
		t.Fatalf("MakeThumbnail() error = %v", err)
	}
	if thumb.Width != DefaultThumbMaxSide {
		t.Fatalf("Width = %d, want %d", thumb.Width, DefaultThumbMaxSide)
	}
	if thumb.Height != 180 {
		t.Fatalf("Height = %d, want 180", thumb.Height)
	}
	if thumb.ContentType != "image/jpeg" {
		t.Fatalf("ContentType = %q", thumb.ContentType)
	}

	meta, err := GetImageMetadata(thumb.Buffer)
	if err != nil {
		t.Fatalf("GetImageMetadata() error = %v", err)
	}
	if meta.Width != thumb.Width || meta.Height != thumb.Height || meta.Format != "jpeg" {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestMakeThumbnailDownscalesPortrait(t *testing.T) {
	data := encodePNG(t, 900, 1600)

	thumb, err := MakeThumbnail(data, &ThumbnailOptions{MaxSide: 160})
	if err != nil {
		t.Fatalf("MakeThumbnail() error = %v", err)
	}
	if thumb.Height != 160 || thumb.Width != 90 {
		t.Fatalf("dimensions = %dx%d, want 90x160", thumb.Width, thumb.Height)
	}
}

func TestMakeThumbnailKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 100, 80)

	thumb, err := MakeThumbnail(data, nil)
	if err != nil {
		t.Fatalf("MakeThumbnail() error = %v", err)
	}
	if thumb.Width != 100 || thumb.Height != 80 {
		t.Fatalf("dimensions = %dx%d, want 100x80", thumb.Width, thumb.Height)
	}
	if thumb.ContentType != "image/jpeg" {
		t.Fatalf("ContentType = %q", thumb.ContentType)
	}
}

func TestMakeThumbnailRejectsGarbage(t *testing.T) {
	if _, err := MakeThumbnail([]byte("not an image"), nil); err == nil {
		t.Fatal("MakeThumbnail() accepted garbage input")
	}
}
