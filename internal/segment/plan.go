package segment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maauso/autoframe/internal/crop"
	"github.com/maauso/autoframe/internal/decide"
)

// ErrNotCropPlan is returned when a crop-window track is requested from a
// scale-and-pad plan.
var ErrNotCropPlan = errors.New("segment: plan has no crop-window track")

// canvasScale converts aspect units to canvas pixels: 9:16 becomes
// 1080x1920.
const canvasScale = 120

// FrameWindow pairs an output frame index with its crop window.
type FrameWindow struct {
	Index  int         `json:"index"`
	Window crop.Window `json:"window"`
}

// PadSpec is a static scale-and-pad instruction: the source is scaled to
// fit entirely inside the target canvas and centered, with fill borders
// around it.
type PadSpec struct {
	CanvasWidth  int `json:"canvas_width"`
	CanvasHeight int `json:"canvas_height"`
	ScaledWidth  int `json:"scaled_width"`
	ScaledHeight int `json:"scaled_height"`
	OffsetX      int `json:"offset_x"`
	OffsetY      int `json:"offset_y"`
}

// Plan is the rendering plan for one segment: either a time-varying
// crop-window track or a single pad instruction. It is hand-off data for
// the external encoder; no pixels are transformed here.
type Plan struct {
	Segment      Segment          `json:"segment"`
	Strategy     decide.Strategy  `json:"strategy"`
	Decision     *decide.Decision `json:"decision,omitempty"`
	AspectRatio  string           `json:"aspect_ratio"`
	SourceWidth  int              `json:"source_width"`
	SourceHeight int              `json:"source_height"`
	FPS          float64          `json:"fps,omitempty"`
	Windows      []FrameWindow    `json:"windows,omitempty"`
	Pad          *PadSpec         `json:"pad,omitempty"`
}

// SendCmd renders the crop-window track as an ffmpeg sendcmd script, one
// crop reposition per frame. Returns ErrNotCropPlan for pad plans.
func (p *Plan) SendCmd() (string, error) {
	if p.Strategy != decide.CropAndZoom || len(p.Windows) == 0 {
		return "", ErrNotCropPlan
	}

	var b strings.Builder
	for _, fw := range p.Windows {
		fmt.Fprintf(&b, "%d [enter] crop x %d, crop y %d;\n", fw.Index, fw.Window.X, fw.Window.Y)
	}

	return b.String(), nil
}

// padSpec computes the scale-and-pad instruction for a source inside the
// target canvas. Scaled dimensions are even for encoder alignment.
func padSpec(srcW, srcH int, ratio crop.AspectRatio) PadSpec {
	cw := ratio.W * canvasScale
	ch := ratio.H * canvasScale

	scale := min(float64(cw)/float64(srcW), float64(ch)/float64(srcH))
	sw := int(float64(srcW)*scale) &^ 1
	sh := int(float64(srcH)*scale) &^ 1

	return PadSpec{
		CanvasWidth:  cw,
		CanvasHeight: ch,
		ScaledWidth:  sw,
		ScaledHeight: sh,
		OffsetX:      (cw - sw) / 2,
		OffsetY:      (ch - sh) / 2,
	}
}
