package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Static errors for frame extraction.
var (
	// ErrInvalidTimeRange is returned when end is not after start.
	ErrInvalidTimeRange = errors.New("source: end must be after start")
	// ErrInvalidFPS is returned when the sampling rate is not positive.
	ErrInvalidFPS = errors.New("source: fps must be positive")
	// ErrInvalidSampleCount is returned when the sample count is not positive.
	ErrInvalidSampleCount = errors.New("source: sample count must be positive")
	// ErrFFprobeExecution is returned when ffprobe fails.
	ErrFFprobeExecution = errors.New("source: ffprobe execution failed")
	// ErrMetadataIncomplete is returned when ffprobe output lacks required fields.
	ErrMetadataIncomplete = errors.New("source: incomplete stream metadata")
)

// defaultSampleWidth is the width preview frames are scaled down to before
// detection. Sampling exists to make a cheap decision; detection accuracy at
// this size is sufficient because the decision compares relative widths.
const defaultSampleWidth = 640

// FFmpegSource reads frames from a video file using the ffmpeg CLI.
type FFmpegSource struct {
	path        string
	ffmpegPath  string
	ffprobePath string
	sampleWidth int
}

// Option configures an FFmpegSource.
type Option func(*FFmpegSource)

// WithFFmpegPath sets the ffmpeg binary path. Defaults to "ffmpeg".
func WithFFmpegPath(p string) Option {
	return func(s *FFmpegSource) {
		s.ffmpegPath = p
	}
}

// WithFFprobePath sets the ffprobe binary path. Defaults to "ffprobe".
func WithFFprobePath(p string) Option {
	return func(s *FFmpegSource) {
		s.ffprobePath = p
	}
}

// WithSampleWidth sets the downscaled width used by SampleFrames.
// A value of 0 disables downscaling.
func WithSampleWidth(w int) Option {
	return func(s *FFmpegSource) {
		s.sampleWidth = w
	}
}

// NewFFmpegSource creates a frame source for the given video file.
func NewFFmpegSource(path string, opts ...Option) *FFmpegSource {
	s := &FFmpegSource{
		path:        path,
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		sampleWidth: defaultSampleWidth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metadata probes the video stream for dimensions, frame rate and duration.
func (s *FFmpegSource) Metadata(ctx context.Context) (Metadata, error) {
	// #nosec G204 - binary path is set by the application, not user input
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		s.path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Metadata{}, fmt.Errorf("source: ffprobe cancelled: %w", ctx.Err())
		}
		return Metadata{}, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return parseMetadata(stdout.String())
}

// parseMetadata parses ffprobe key=value output into Metadata.
func parseMetadata(out string) (Metadata, error) {
	var md Metadata
	var haveW, haveH bool

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}

		switch key {
		case "width":
			if v, err := strconv.Atoi(value); err == nil {
				md.Width = v
				haveW = true
			}
		case "height":
			if v, err := strconv.Atoi(value); err == nil {
				md.Height = v
				haveH = true
			}
		case "avg_frame_rate":
			md.FPS = parseRate(value)
		case "duration":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				md.Duration = v
			}
		}
	}

	if !haveW || !haveH {
		return Metadata{}, fmt.Errorf("%w: %q", ErrMetadataIncomplete, out)
	}

	return md, nil
}

// parseRate parses an ffprobe rational like "30000/1001" or "25/1".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}

	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// Frames extracts the time range at the given rate and decodes every frame.
func (s *FFmpegSource) Frames(ctx context.Context, start, end, fps float64) ([]image.Image, error) {
	if end <= start {
		return nil, fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidTimeRange, start, end)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidFPS, fps)
	}

	return s.extract(ctx, start, end, fmt.Sprintf("fps=%g", fps))
}

// SampleFrames extracts count evenly spaced frames from the time range,
// downscaled for preview analysis when a sample width is configured.
func (s *FFmpegSource) SampleFrames(ctx context.Context, start, end float64, count int) ([]image.Image, error) {
	if end <= start {
		return nil, fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidTimeRange, start, end)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, count)
	}

	filter := fmt.Sprintf("fps=%g", float64(count)/(end-start))
	if s.sampleWidth > 0 {
		filter += fmt.Sprintf(",scale=%d:-2", s.sampleWidth)
	}

	frames, err := s.extract(ctx, start, end, filter)
	if err != nil {
		return nil, err
	}
	if len(frames) > count {
		frames = frames[:count]
	}
	return frames, nil
}

// extract runs ffmpeg with the given filter, writing JPEG frames to a
// temporary directory, and decodes them in frame order.
func (s *FFmpegSource) extract(ctx context.Context, start, end float64, filter string) ([]image.Image, error) {
	dir, err := os.MkdirTemp("", "autoframe-frames-*")
	if err != nil {
		return nil, fmt.Errorf("source: create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
		"-i", s.path,
		"-vf", filter,
		"-q:v", "2",
		filepath.Join(dir, "frame_%05d.jpg"),
	}

	if err := s.runFFmpeg(ctx, args); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("source: list frames: %w", err)
	}
	sort.Strings(paths)

	frames := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", filepath.Base(p), err)
		}
		frames = append(frames, img)
	}

	return frames, nil
}

// sceneTimeRe matches frame timestamps in ffmpeg showinfo output.
var sceneTimeRe = regexp.MustCompile(`pts_time:(\d+\.?\d*)`)

// DetectScenes returns the timestamps of scene changes above the threshold.
// The threshold is ffmpeg's scene score in [0, 1]; 0.3 is a reasonable cut
// for typical footage.
func (s *FFmpegSource) DetectScenes(ctx context.Context, threshold float64) ([]float64, error) {
	// #nosec G204 - binary path is set by the application, not user input
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-i", s.path,
		"-vf", fmt.Sprintf("select='gt(scene,%g)',showinfo", threshold),
		"-f", "null", "-",
	)

	// showinfo logs to stderr.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("source: ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, &FFmpegError{Args: cmd.Args[1:], Stderr: output.String(), Err: err}
	}

	return parseSceneTimes(output.String()), nil
}

// parseSceneTimes extracts sorted pts_time values from showinfo output.
func parseSceneTimes(out string) []float64 {
	var times []float64
	for _, m := range sceneTimeRe.FindAllStringSubmatch(out, -1) {
		if t, err := strconv.ParseFloat(m[1], 64); err == nil {
			times = append(times, t)
		}
	}
	sort.Float64s(times)
	return times
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (s *FFmpegSource) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - binary path is set by the application, not user input
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("source: ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{Args: args, Stderr: stderr.String(), Err: err}
	}

	return nil
}

// formatSeconds renders a timestamp for the ffmpeg command line.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FFmpegError represents an ffmpeg failure, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("source: ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
