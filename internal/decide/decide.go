// Package decide chooses a crop strategy for a segment before the expensive
// full-resolution tracking pass. It samples a handful of frames, measures how
// widely the detected subjects are spread, and compares that spread against
// the crop width the target aspect ratio allows.
package decide

import (
	"context"
	"image"
	"log/slog"

	"github.com/maauso/autoframe/internal/crop"
	"github.com/maauso/autoframe/internal/detect"
)

// Strategy is the closed set of crop strategies. It is resolved once per
// segment; downstream code branches on this type, never on raw strings.
type Strategy string

const (
	// CropAndZoom crops the source to the target aspect ratio, discarding
	// out-of-window content.
	CropAndZoom Strategy = "crop"
	// ScaleAndPad fits the entire source frame inside the target canvas,
	// adding fill borders.
	ScaleAndPad Strategy = "scale_pad"
)

// IsValid returns true for a known strategy value.
func (s Strategy) IsValid() bool {
	return s == CropAndZoom || s == ScaleAndPad
}

// DefaultSampleCount is the number of frames sampled per segment.
const DefaultSampleCount = 10

// Decision is a strategy choice plus the diagnostics that produced it.
type Decision struct {
	// Strategy is the chosen crop strategy.
	Strategy Strategy `json:"strategy"`
	// SubjectsFound is false when no sampled frame yielded a detection.
	SubjectsFound bool `json:"subjects_found"`
	// SpreadWidth is the width of the bounding box covering every
	// detection across every sampled frame.
	SpreadWidth float64 `json:"spread_width"`
	// CropWidth is the crop width available at the target aspect ratio.
	CropWidth float64 `json:"crop_width"`
	// Ratio is SpreadWidth / CropWidth.
	Ratio float64 `json:"ratio"`
}

// Decider samples frames and picks a strategy.
type Decider struct {
	detector detect.Detector
	logger   *slog.Logger
}

// NewDecider creates a Decider.
func NewDecider(detector detect.Detector, logger *slog.Logger) *Decider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{detector: detector, logger: logger}
}

// Decide inspects the sampled frames and chooses a strategy.
//
// The rule: when no subjects are found at all, or when the full subject
// spread fits inside the achievable crop width (ratio <= 1.0), cropping is
// viable; otherwise padding is required so no subject is cut out of frame.
// The threshold is exactly "fits with no slack"; callers needing headroom
// pre-shrink the effective crop width. A detector error on an individual
// frame counts as no detection for that frame.
func (d *Decider) Decide(ctx context.Context, frames []image.Image, srcW, srcH int, ratio crop.AspectRatio) (Decision, error) {
	cropW, _, err := crop.Dims(srcW, srcH, ratio)
	if err != nil {
		return Decision{}, err
	}

	var all []detect.Detection
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}

		dets, err := d.detector.Detect(ctx, frame)
		if err != nil {
			d.logger.Warn("sample detection failed, counting as empty",
				slog.Int("sample", i),
				slog.String("error", err.Error()))
			continue
		}
		all = append(all, dets...)
	}

	spread, found := detect.Union(all)
	if !found {
		d.logger.Info("no subjects found in sampled frames, cropping",
			slog.Int("samples", len(frames)))
		return Decision{Strategy: CropAndZoom, CropWidth: float64(cropW)}, nil
	}

	decision := Decision{
		SubjectsFound: true,
		SpreadWidth:   spread.Width,
		CropWidth:     float64(cropW),
		Ratio:         spread.Width / float64(cropW),
	}
	if decision.Ratio <= 1.0 {
		decision.Strategy = CropAndZoom
	} else {
		decision.Strategy = ScaleAndPad
	}

	d.logger.Info("crop strategy decided",
		slog.String("strategy", string(decision.Strategy)),
		slog.Float64("spread_width", decision.SpreadWidth),
		slog.Float64("crop_width", decision.CropWidth),
		slog.Float64("ratio", decision.Ratio))

	return decision, nil
}
