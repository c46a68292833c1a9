package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"
)

// Static errors for the remote detector.
var (
	// ErrBaseURLRequired is returned when the detection service URL is not provided.
	ErrBaseURLRequired = errors.New("detect: base URL is required")
	// ErrRemoteRequestFailed is returned when the detection service responds with a non-2xx status.
	ErrRemoteRequestFailed = errors.New("detect: remote request failed")
)

// RemoteDetector calls an external detection service over HTTP.
// The frame is sent as a JPEG body; the service responds with a JSON list
// of bounding boxes. One shared http.Client makes the detector safe for
// concurrent use.
type RemoteDetector struct {
	baseURL     string
	httpClient  *http.Client
	jpegQuality int
}

// RemoteOption configures a RemoteDetector.
type RemoteOption func(*RemoteDetector)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(d *RemoteDetector) {
		d.httpClient = c
	}
}

// WithJPEGQuality sets the JPEG encode quality for uploaded frames.
func WithJPEGQuality(q int) RemoteOption {
	return func(d *RemoteDetector) {
		d.jpegQuality = q
	}
}

// NewRemoteDetector creates a detector backed by an external HTTP service.
func NewRemoteDetector(baseURL string, opts ...RemoteOption) (*RemoteDetector, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	d := &RemoteDetector{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		jpegQuality: 85,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// remoteResponse is the wire format returned by the detection service.
type remoteResponse struct {
	Detections []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		Confidence float64 `json:"confidence"`
	} `json:"detections"`
}

// Detect sends the frame to the detection service and returns its boxes.
func (d *RemoteDetector) Detect(ctx context.Context, frame image.Image) ([]Detection, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, frame, &jpeg.Options{Quality: d.jpegQuality}); err != nil {
		return nil, fmt.Errorf("detect: encode frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("detect: create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteRequestFailed, resp.StatusCode, payload)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("detect: decode response: %w", err)
	}

	dets := make([]Detection, 0, len(parsed.Detections))
	for _, b := range parsed.Detections {
		dets = append(dets, Detection{
			X:          b.X,
			Y:          b.Y,
			Width:      b.Width,
			Height:     b.Height,
			Confidence: b.Confidence,
		})
	}

	return dets, nil
}
