package decide

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/maauso/autoframe/internal/crop"
	"github.com/maauso/autoframe/internal/detect"
)

// fixedDetector returns the same detections for every frame.
type fixedDetector struct {
	dets []detect.Detection
	err  error
}

func (d *fixedDetector) Detect(ctx context.Context, frame image.Image) ([]detect.Detection, error) {
	return d.dets, d.err
}

func sampleFrames(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	}
	return frames
}

func TestStrategy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		want     bool
	}{
		{"crop", CropAndZoom, true},
		{"scale_pad", ScaleAndPad, true},
		{"empty", Strategy(""), false},
		{"unknown", Strategy("letterbox"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.strategy.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Source 1920x1080 at 9:16 gives a crop width of 1080*9/16 = 607, rounded
// to 606. A spread of 500 fits; a spread of 1200 does not.
func TestDecide_SpreadAgainstCropWidth(t *testing.T) {
	tests := []struct {
		name        string
		spreadWidth float64
		want        Strategy
	}{
		{"narrow spread crops", 500, CropAndZoom},
		{"exact fit crops", 606, CropAndZoom},
		{"wide spread pads", 1200, ScaleAndPad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := &fixedDetector{dets: []detect.Detection{
				{X: 100, Y: 200, Width: tt.spreadWidth, Height: 300, Confidence: 0.9},
			}}
			decider := NewDecider(detector, nil)

			decision, err := decider.Decide(context.Background(), sampleFrames(1), 1920, 1080, crop.AspectRatio{W: 9, H: 16})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if decision.Strategy != tt.want {
				t.Errorf("expected %s, got %s (ratio %g)", tt.want, decision.Strategy, decision.Ratio)
			}
			if !decision.SubjectsFound {
				t.Error("expected SubjectsFound=true")
			}
			if decision.CropWidth != 606 {
				t.Errorf("expected crop width 606, got %g", decision.CropWidth)
			}
			if decision.SpreadWidth != tt.spreadWidth {
				t.Errorf("expected spread %g, got %g", tt.spreadWidth, decision.SpreadWidth)
			}
		})
	}
}

// The decision is a pure step function of ratio: crossing 1.0 flips it
// exactly once, from crop to pad, never back.
func TestDecide_MonotonicInSpread(t *testing.T) {
	prevPadded := false
	for spread := 100.0; spread <= 1400; spread += 50 {
		detector := &fixedDetector{dets: []detect.Detection{
			{X: 0, Y: 0, Width: spread, Height: 300, Confidence: 0.9},
		}}
		decider := NewDecider(detector, nil)

		decision, err := decider.Decide(context.Background(), sampleFrames(1), 1920, 1080, crop.AspectRatio{W: 9, H: 16})
		if err != nil {
			t.Fatalf("spread %g: unexpected error: %v", spread, err)
		}

		padded := decision.Strategy == ScaleAndPad
		if prevPadded && !padded {
			t.Fatalf("decision flipped back to crop at spread %g", spread)
		}
		if padded != (decision.Ratio > 1.0) {
			t.Errorf("spread %g: strategy %s inconsistent with ratio %g", spread, decision.Strategy, decision.Ratio)
		}
		prevPadded = padded
	}
	if !prevPadded {
		t.Error("expected the widest spread to force padding")
	}
}

func TestDecide_SpreadUnionAcrossFrames(t *testing.T) {
	// Two subjects at opposite sides: individually narrow, jointly too
	// wide for the crop.
	detector := &fixedDetector{dets: []detect.Detection{
		{X: 50, Y: 200, Width: 200, Height: 300, Confidence: 0.9},
		{X: 1600, Y: 200, Width: 200, Height: 300, Confidence: 0.8},
	}}
	decider := NewDecider(detector, nil)

	decision, err := decider.Decide(context.Background(), sampleFrames(3), 1920, 1080, crop.AspectRatio{W: 9, H: 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Strategy != ScaleAndPad {
		t.Errorf("expected ScaleAndPad for spread group, got %s", decision.Strategy)
	}
	if decision.SpreadWidth != 1750 {
		t.Errorf("expected spread 1750, got %g", decision.SpreadWidth)
	}
}

func TestDecide_NoSubjectsCrops(t *testing.T) {
	decider := NewDecider(&fixedDetector{}, nil)

	decision, err := decider.Decide(context.Background(), sampleFrames(10), 1920, 1080, crop.AspectRatio{W: 9, H: 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Strategy != CropAndZoom {
		t.Errorf("expected CropAndZoom with no subjects, got %s", decision.Strategy)
	}
	if decision.SubjectsFound {
		t.Error("expected SubjectsFound=false")
	}
}

func TestDecide_DetectorErrorsCountAsEmpty(t *testing.T) {
	decider := NewDecider(&fixedDetector{err: errors.New("inference failed")}, nil)

	decision, err := decider.Decide(context.Background(), sampleFrames(5), 1920, 1080, crop.AspectRatio{W: 9, H: 16})
	if err != nil {
		t.Fatalf("per-frame detector errors must not fail the decision: %v", err)
	}

	if decision.Strategy != CropAndZoom || decision.SubjectsFound {
		t.Errorf("expected no-subject crop decision, got %+v", decision)
	}
}

func TestDecide_RatioError(t *testing.T) {
	decider := NewDecider(&fixedDetector{}, nil)

	_, err := decider.Decide(context.Background(), sampleFrames(1), 3, 3, crop.AspectRatio{W: 9, H: 16})
	if !errors.Is(err, crop.ErrRatioTooWide) {
		t.Fatalf("expected ErrRatioTooWide, got %v", err)
	}
}
