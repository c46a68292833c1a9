// Package track turns per-frame detections into a subject center sequence.
// It deliberately does no smoothing: this package records what was observed,
// stabilization is a separate concern.
package track

import (
	"context"
	"image"
	"log/slog"

	"github.com/maauso/autoframe/internal/detect"
)

// Center is the best-estimate focal point for one sampled frame.
type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tracker produces one subject center per frame from a detector.
type Tracker struct {
	detector detect.Detector
	logger   *slog.Logger
}

// NewTracker creates a Tracker.
func NewTracker(detector detect.Detector, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{detector: detector, logger: logger}
}

// Track runs the detector over every frame and returns one center per frame.
//
// Per frame: the highest-confidence detection wins and its center is
// recorded. A frame with no detections reuses the previous center; a leading
// run of empty frames falls back to the frame's geometric center. A detector
// error on a single frame is treated as a miss, not as a failure of the
// whole segment.
func (t *Tracker) Track(ctx context.Context, frames []image.Image) ([]Center, error) {
	centers := make([]Center, 0, len(frames))
	var prev *Center

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dets, err := t.detector.Detect(ctx, frame)
		if err != nil {
			t.logger.Warn("detection failed, treating as miss",
				slog.Int("frame", i),
				slog.String("error", err.Error()))
			dets = nil
		}

		if best, ok := detect.Best(dets); ok {
			cx, cy := best.Center()
			c := Center{X: cx, Y: cy}
			centers = append(centers, c)
			prev = &c
			continue
		}

		if prev != nil {
			centers = append(centers, *prev)
			continue
		}

		// Nothing seen yet: neutral default.
		bounds := frame.Bounds()
		c := Center{
			X: float64(bounds.Dx()) / 2,
			Y: float64(bounds.Dy()) / 2,
		}
		centers = append(centers, c)
		prev = &c
	}

	return centers, nil
}
