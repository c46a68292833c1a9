package source

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	out := "width=1920\nheight=1080\navg_frame_rate=30000/1001\nduration=12.480000\n"

	md, err := parseMetadata(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.Width != 1920 || md.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", md.Width, md.Height)
	}
	if math.Abs(md.FPS-29.97) > 0.01 {
		t.Errorf("expected ~29.97 fps, got %g", md.FPS)
	}
	if md.Duration != 12.48 {
		t.Errorf("expected duration 12.48, got %g", md.Duration)
	}
}

func TestParseMetadata_Incomplete(t *testing.T) {
	_, err := parseMetadata("duration=10.0\n")
	if !errors.Is(err, ErrMetadataIncomplete) {
		t.Fatalf("expected ErrMetadataIncomplete, got %v", err)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"integer rational", "25/1", 25},
		{"ntsc", "30000/1001", 29.97002997002997},
		{"plain number", "24", 24},
		{"zero denominator", "25/0", 0},
		{"garbage", "n/a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRate(tt.input); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseRate(%q) = %g, want %g", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSceneTimes(t *testing.T) {
	out := `[Parsed_showinfo_1 @ 0x1] n:   0 pts:  12800 pts_time:4.2667 duration_time:0.04
[Parsed_showinfo_1 @ 0x1] n:   1 pts:  38400 pts_time:1.5 duration_time:0.04
[Parsed_showinfo_1 @ 0x1] n:   2 pts:  64000 pts_time:12 duration_time:0.04`

	times := parseSceneTimes(out)
	if len(times) != 3 {
		t.Fatalf("expected 3 scene times, got %d", len(times))
	}

	// Sorted ascending regardless of log order.
	want := []float64{1.5, 4.2667, 12}
	for i, w := range want {
		if math.Abs(times[i]-w) > 1e-9 {
			t.Errorf("index %d: expected %g, got %g", i, w, times[i])
		}
	}
}

func TestParseSceneTimes_NoMatches(t *testing.T) {
	if times := parseSceneTimes("no showinfo output here"); len(times) != 0 {
		t.Errorf("expected no times, got %v", times)
	}
}

func TestFrames_Validation(t *testing.T) {
	src := NewFFmpegSource("missing.mp4")
	ctx := context.Background()

	if _, err := src.Frames(ctx, 5, 5, 25); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
	if _, err := src.Frames(ctx, 0, 5, 0); !errors.Is(err, ErrInvalidFPS) {
		t.Errorf("expected ErrInvalidFPS, got %v", err)
	}
	if _, err := src.SampleFrames(ctx, 2, 1, 10); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
	if _, err := src.SampleFrames(ctx, 0, 5, 0); !errors.Is(err, ErrInvalidSampleCount) {
		t.Errorf("expected ErrInvalidSampleCount, got %v", err)
	}
}

// checkFFmpeg skips test if ffmpeg is not available.
func checkFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestVideo renders a short synthetic clip with ffmpeg's testsrc.
func createTestVideo(t *testing.T, path string, durationSec float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi",
		"-i", "testsrc=duration="+formatSeconds(durationSec)+":size=320x240:rate=25",
		"-pix_fmt", "yuv420p",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\n%s", err, out)
	}
}

func TestFFmpegSource_Integration(t *testing.T) {
	checkFFmpeg(t)

	path := filepath.Join(t.TempDir(), "test.mp4")
	createTestVideo(t, path, 2)

	src := NewFFmpegSource(path)
	ctx := context.Background()

	md, err := src.Metadata(ctx)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.Width != 320 || md.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", md.Width, md.Height)
	}
	if math.Abs(md.FPS-25) > 0.01 {
		t.Errorf("expected 25 fps, got %g", md.FPS)
	}
	if math.Abs(md.Duration-2) > 0.2 {
		t.Errorf("expected ~2s duration, got %g", md.Duration)
	}

	frames, err := src.Frames(ctx, 0, 1, 5)
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	if len(frames) < 4 || len(frames) > 6 {
		t.Fatalf("expected ~5 frames, got %d", len(frames))
	}
	for i, f := range frames {
		b := f.Bounds()
		if b.Dx() != 320 || b.Dy() != 240 {
			t.Errorf("frame %d: expected 320x240, got %dx%d", i, b.Dx(), b.Dy())
		}
	}

	samples, err := src.SampleFrames(ctx, 0, 2, 4)
	if err != nil {
		t.Fatalf("sample frames: %v", err)
	}
	if len(samples) == 0 || len(samples) > 4 {
		t.Fatalf("expected at most 4 samples, got %d", len(samples))
	}
	// Previews are normalized to the configured sample width.
	if b := samples[0].Bounds(); b.Dx() != 640 {
		t.Errorf("expected sample width 640, got %d", b.Dx())
	}
}
