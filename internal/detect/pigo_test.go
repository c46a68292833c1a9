package detect

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewPigoDetector_MissingCascade(t *testing.T) {
	_, err := NewPigoDetector("testdata/does-not-exist")
	if !errors.Is(err, ErrCascadeNotLoaded) {
		t.Fatalf("expected ErrCascadeNotLoaded, got %v", err)
	}
}

func TestGrayPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}

	pixels := grayPixels(img)
	if len(pixels) != 12 {
		t.Fatalf("expected 12 pixels, got %d", len(pixels))
	}
	for i, p := range pixels {
		if p != 255 {
			t.Errorf("pixel %d: expected 255, got %d", i, p)
		}
	}
}
