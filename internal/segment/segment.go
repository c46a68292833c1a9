// Package segment orchestrates crop planning for one time range of a video.
// It resolves the crop strategy (caller-supplied or auto-detected), runs the
// tracking pipeline when cropping, and emits a rendering plan for the
// external encoder.
package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/autoframe/internal/crop"
	"github.com/maauso/autoframe/internal/decide"
	"github.com/maauso/autoframe/internal/detect"
	"github.com/maauso/autoframe/internal/smooth"
	"github.com/maauso/autoframe/internal/source"
	"github.com/maauso/autoframe/internal/track"
)

// Static errors for segment processing.
var (
	// ErrInvalidOptions is returned when processing options fail validation.
	ErrInvalidOptions = errors.New("segment: invalid options")
	// ErrInvalidSegment is returned when the segment time range is empty.
	ErrInvalidSegment = errors.New("segment: end must be after start")
	// ErrNoFrames is returned when the source yields no frames for the segment.
	ErrNoFrames = errors.New("segment: no frames in time range")
)

// Mode selects how the crop strategy is chosen.
type Mode string

const (
	// ModeAuto samples the segment and decides between crop and pad.
	ModeAuto Mode = "auto"
	// ModeCrop forces the crop-and-zoom strategy.
	ModeCrop Mode = "crop"
	// ModeScalePad forces the scale-and-pad strategy.
	ModeScalePad Mode = "scale_pad"
)

// Segment is a caller-specified time range of the source video, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Options control how a segment is processed.
type Options struct {
	// AspectRatio is the target ratio, e.g. "9:16".
	AspectRatio string `validate:"required"`
	// Mode selects the strategy: auto, crop or scale_pad.
	Mode Mode `validate:"required,oneof=auto crop scale_pad"`
	// SampleCount is the number of frames the auto decision samples.
	// Zero means the default.
	SampleCount int `validate:"gte=0"`
	// TrackFPS is the frame rate of the crop-window track.
	// Zero means the source frame rate.
	TrackFPS float64 `validate:"gte=0"`
}

var validate = validator.New()

// Processor plans the rendering of segments.
type Processor struct {
	tracker  *track.Tracker
	decider  *decide.Decider
	smoother *smooth.Filter
	logger   *slog.Logger
}

// NewProcessor creates a Processor. The detector is shared by the tracking
// and decision stages; the smoother is applied to every crop trajectory.
func NewProcessor(detector detect.Detector, smoother *smooth.Filter, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		tracker:  track.NewTracker(detector, logger),
		decider:  decide.NewDecider(detector, logger),
		smoother: smoother,
		logger:   logger,
	}
}

// Process produces a rendering plan for one segment.
//
// Configuration errors (bad options, an aspect ratio that cannot fit the
// source) surface before any per-frame work. Per-frame detection failures
// never fail the segment; they fall into the tracker's gap policy.
func (p *Processor) Process(ctx context.Context, src source.FrameSource, seg Segment, opts Options) (*Plan, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if seg.End <= seg.Start {
		return nil, fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidSegment, seg.Start, seg.End)
	}

	ratio, err := crop.ParseAspectRatio(opts.AspectRatio)
	if err != nil {
		return nil, err
	}

	md, err := src.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("segment: probe source: %w", err)
	}

	// Fail on impossible geometry before touching any frames.
	if _, _, err := crop.Dims(md.Width, md.Height, ratio); err != nil {
		return nil, err
	}

	plan := &Plan{
		Segment:      seg,
		AspectRatio:  ratio.String(),
		SourceWidth:  md.Width,
		SourceHeight: md.Height,
	}

	strategy, decision, err := p.resolveStrategy(ctx, src, seg, opts, md, ratio)
	if err != nil {
		return nil, err
	}
	plan.Strategy = strategy
	plan.Decision = decision

	if strategy == decide.ScaleAndPad {
		pad := padSpec(md.Width, md.Height, ratio)
		plan.Pad = &pad
		p.logger.Info("segment planned",
			slog.String("strategy", string(strategy)),
			slog.Float64("start", seg.Start),
			slog.Float64("end", seg.End))
		return plan, nil
	}

	fps := opts.TrackFPS
	if fps <= 0 {
		fps = md.FPS
	}

	frames, err := src.Frames(ctx, seg.Start, seg.End, fps)
	if err != nil {
		return nil, fmt.Errorf("segment: read frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %.3f-%.3f", ErrNoFrames, seg.Start, seg.End)
	}

	centers, err := p.tracker.Track(ctx, frames)
	if err != nil {
		return nil, fmt.Errorf("segment: track subject: %w", err)
	}

	traj := p.smoother.Smooth(centers)

	windows, err := crop.BuildWindows(traj, md.Width, md.Height, ratio)
	if err != nil {
		return nil, err
	}

	plan.FPS = fps
	plan.Windows = make([]FrameWindow, len(windows))
	for i, w := range windows {
		plan.Windows[i] = FrameWindow{Index: i, Window: w}
	}

	p.logger.Info("segment planned",
		slog.String("strategy", string(strategy)),
		slog.Float64("start", seg.Start),
		slog.Float64("end", seg.End),
		slog.Int("windows", len(windows)))

	return plan, nil
}

// resolveStrategy maps the requested mode to a concrete strategy, sampling
// the segment when the caller asked for auto detection.
func (p *Processor) resolveStrategy(ctx context.Context, src source.FrameSource, seg Segment, opts Options, md source.Metadata, ratio crop.AspectRatio) (decide.Strategy, *decide.Decision, error) {
	switch opts.Mode {
	case ModeCrop:
		return decide.CropAndZoom, nil, nil
	case ModeScalePad:
		return decide.ScaleAndPad, nil, nil
	}

	count := opts.SampleCount
	if count <= 0 {
		count = decide.DefaultSampleCount
	}

	samples, err := src.SampleFrames(ctx, seg.Start, seg.End, count)
	if err != nil {
		return "", nil, fmt.Errorf("segment: sample frames: %w", err)
	}

	// Samples may be downscaled previews; measure spread against their
	// own geometry so the fit ratio stays scale-invariant.
	w, h := md.Width, md.Height
	if len(samples) > 0 {
		bounds := samples[0].Bounds()
		w, h = bounds.Dx(), bounds.Dy()
	}

	decision, err := p.decider.Decide(ctx, samples, w, h, ratio)
	if err != nil {
		return "", nil, err
	}

	return decision.Strategy, &decision, nil
}
