package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// Static errors for the pigo detector.
var (
	// ErrCascadeNotLoaded is returned when the cascade file cannot be read or unpacked.
	ErrCascadeNotLoaded = errors.New("detect: cascade could not be loaded")
)

// Pigo cascade defaults. These govern the detection window sweep and the
// duplicate clustering applied to raw cascade hits.
const (
	defaultMinSize     = 20
	defaultMaxSize     = 1000
	defaultShiftFactor = 0.1
	defaultScaleFactor = 1.1
	iouThreshold       = 0.2
	qualityThreshold   = 5.0
)

// PigoDetector detects faces using the esimov/pigo cascade classifier.
// The cascade is unpacked once at construction and is read-only afterwards,
// so a single detector is safe for concurrent Detect calls.
type PigoDetector struct {
	classifier *pigo.Pigo
	minSize    int
	maxSize    int
}

// PigoOption configures a PigoDetector.
type PigoOption func(*PigoDetector)

// WithSizeRange sets the minimum and maximum detection window size in pixels.
func WithSizeRange(minSize, maxSize int) PigoOption {
	return func(d *PigoDetector) {
		d.minSize = minSize
		d.maxSize = maxSize
	}
}

// NewPigoDetector reads and unpacks a pigo cascade file.
// A load failure here is a startup error: the process cannot serve any
// detection work without the model.
func NewPigoDetector(cascadePath string, opts ...PigoOption) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath) // #nosec G304 - path comes from application config
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrCascadeNotLoaded, cascadePath, err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %w", ErrCascadeNotLoaded, cascadePath, err)
	}

	d := &PigoDetector{
		classifier: classifier,
		minSize:    defaultMinSize,
		maxSize:    defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Detect runs the cascade over the frame and returns clustered face boxes.
// An empty slice means no face was found.
func (d *PigoDetector) Detect(ctx context.Context, frame image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := frame.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     d.maxSize,
		ShiftFactor: defaultShiftFactor,
		ScaleFactor: defaultScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: grayPixels(frame),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	hits := d.classifier.RunCascade(params, 0.0)
	hits = d.classifier.ClusterDetections(hits, iouThreshold)

	var dets []Detection
	for _, hit := range hits {
		if float64(hit.Q) < qualityThreshold {
			continue
		}

		// pigo reports a center (row, col) and scale (radius).
		size := float64(hit.Scale) * 2
		dets = append(dets, Detection{
			X:          float64(hit.Col) - float64(hit.Scale),
			Y:          float64(hit.Row) - float64(hit.Scale),
			Width:      size,
			Height:     size,
			Confidence: float64(hit.Q) / 100.0,
		})
	}

	return dets, nil
}

// grayPixels converts a frame to the flat grayscale buffer pigo expects.
func grayPixels(frame image.Image) []uint8 {
	gray := imaging.Grayscale(frame)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	pixels := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// NRGBA grayscale: all channels equal, take R.
			pixels[y*w+x] = gray.Pix[gray.PixOffset(x, y)]
		}
	}

	return pixels
}
