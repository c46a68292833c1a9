// Package crop computes boundary-safe crop windows for a target aspect ratio.
// Windows are centered on a subject trajectory and clamped into the source
// frame; dimensions are always even to satisfy encoder alignment.
package crop

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maauso/autoframe/internal/track"
)

// Static errors for crop window computation.
var (
	// ErrInvalidAspectRatio is returned when an aspect ratio string cannot be parsed.
	ErrInvalidAspectRatio = errors.New("crop: invalid aspect ratio")
	// ErrInvalidSourceDims is returned when source dimensions are not positive.
	ErrInvalidSourceDims = errors.New("crop: source dimensions must be positive")
	// ErrRatioTooWide is returned when the target aspect ratio cannot fit
	// inside the source frame at any usable size.
	ErrRatioTooWide = errors.New("crop: target aspect ratio does not fit inside source frame")
)

// AspectRatio is a target width:height ratio, e.g. 9:16 for vertical video.
type AspectRatio struct {
	W int
	H int
}

// ParseAspectRatio parses a "W:H" string such as "9:16".
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
	}
	if w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
	}

	return AspectRatio{W: w, H: h}, nil
}

// Value returns the ratio as width divided by height.
func (ar AspectRatio) Value() float64 {
	return float64(ar.W) / float64(ar.H)
}

// String returns the ratio in "W:H" form.
func (ar AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", ar.W, ar.H)
}

// Window is a crop rectangle in source pixel coordinates.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dims computes the crop dimensions for the target aspect ratio inside a
// source frame. The crop uses the full source height when possible; when the
// resulting width would exceed the source width, the crop is shrunk to the
// full source width instead. Both dimensions are rounded down to even values.
// Returns ErrRatioTooWide when the source is too small to produce a usable
// even-sized window.
func Dims(srcW, srcH int, ratio AspectRatio) (w, h int, err error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidSourceDims, srcW, srcH)
	}

	h = evenFloor(srcH)
	w = evenFloor(int(float64(h) * ratio.Value()))

	if w > srcW {
		w = evenFloor(srcW)
		h = evenFloor(int(float64(w) / ratio.Value()))
	}

	if w <= 0 || h <= 0 || w > srcW || h > srcH {
		return 0, 0, fmt.Errorf("%w: source %dx%d, target %s", ErrRatioTooWide, srcW, srcH, ratio)
	}

	return w, h, nil
}

// BuildWindows produces one clamped crop window per trajectory point.
// Each window is centered on the trajectory center and clamped so that it
// never exceeds the source bounds; near a frame edge the subject sits as
// close to centered as geometry allows.
func BuildWindows(traj []track.Center, srcW, srcH int, ratio AspectRatio) ([]Window, error) {
	w, h, err := Dims(srcW, srcH, ratio)
	if err != nil {
		return nil, err
	}

	windows := make([]Window, len(traj))
	for i, c := range traj {
		x := clamp(int(c.X)-w/2, 0, srcW-w)
		y := clamp(int(c.Y)-h/2, 0, srcH-h)
		windows[i] = Window{X: x, Y: y, Width: w, Height: h}
	}

	return windows, nil
}

// evenFloor rounds n down to the nearest even integer.
func evenFloor(n int) int {
	return n &^ 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
