// Package detect provides subject detection for video frames.
// The Detector interface abstracts the underlying localization model;
// adapters exist for an in-process pigo face cascade and a remote
// detection service. A detector instance wraps a model that is loaded
// once per process and shared across all calls.
package detect

import (
	"context"
	"image"
)

// Detection is one bounding box in frame pixel coordinates with a
// confidence score in [0, 1].
type Detection struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Center returns the center point of the bounding box.
func (d Detection) Center() (cx, cy float64) {
	return d.X + d.Width/2, d.Y + d.Height/2
}

// Detector locates subjects in a single frame.
// Implementations must be safe for concurrent use and must return an
// empty slice, not an error, when no subject is found.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Detection, error)
}

// Best returns the highest-confidence detection.
// The boolean is false when the slice is empty.
func Best(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}

	best := dets[0]
	for _, d := range dets[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}

// Union returns the smallest bounding box covering every detection.
// The boolean is false when the slice is empty. The confidence of the
// union is the maximum confidence of its members.
func Union(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}

	minX, minY := dets[0].X, dets[0].Y
	maxX, maxY := dets[0].X+dets[0].Width, dets[0].Y+dets[0].Height
	conf := dets[0].Confidence

	for _, d := range dets[1:] {
		minX = min(minX, d.X)
		minY = min(minY, d.Y)
		maxX = max(maxX, d.X+d.Width)
		maxY = max(maxY, d.Y+d.Height)
		conf = max(conf, d.Confidence)
	}

	return Detection{
		X:          minX,
		Y:          minY,
		Width:      maxX - minX,
		Height:     maxY - minY,
		Confidence: conf,
	}, true
}
