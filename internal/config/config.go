// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/autoframe/internal/crop"
)

// Static errors for configuration validation.
var (
	// ErrDetectorRequired is returned when neither a cascade path nor a
	// detector URL is configured.
	ErrDetectorRequired = errors.New("config: CASCADE_PATH or DETECTOR_URL is required")
	// ErrSmoothingWindowEven is returned when the smoothing window is even.
	ErrSmoothingWindowEven = errors.New("config: SMOOTHING_WINDOW must be odd")
)

// Config holds all configuration for the application.
type Config struct {
	// Detector settings. The pigo cascade is used unless a remote
	// detection service URL is provided.
	CascadePath string `env:"CASCADE_PATH" json:"cascade_path,omitempty"`
	DetectorURL string `env:"DETECTOR_URL" json:"detector_url,omitempty"`

	// Planning settings
	AspectRatio     string  `env:"ASPECT_RATIO, default=9:16" json:"aspect_ratio"`
	SmoothingWindow int     `env:"SMOOTHING_WINDOW, default=21" json:"smoothing_window" validate:"gte=3"`
	SmoothingOrder  int     `env:"SMOOTHING_ORDER, default=3" json:"smoothing_order" validate:"gte=0"`
	SampleCount     int     `env:"SAMPLE_COUNT, default=10" json:"sample_count" validate:"gte=1"`
	SampleWidth     int     `env:"SAMPLE_WIDTH, default=640" json:"sample_width" validate:"gte=0"`
	TrackFPS        float64 `env:"TRACK_FPS, default=0" json:"track_fps" validate:"gte=0"`

	// Tool settings
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

var validate = validator.New()

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if c.CascadePath == "" && c.DetectorURL == "" {
		return ErrDetectorRequired
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.SmoothingWindow%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrSmoothingWindowEven, c.SmoothingWindow)
	}
	if c.SmoothingOrder >= c.SmoothingWindow {
		return fmt.Errorf("config: SMOOTHING_ORDER %d must be below SMOOTHING_WINDOW %d", c.SmoothingOrder, c.SmoothingWindow)
	}

	if _, err := crop.ParseAspectRatio(c.AspectRatio); err != nil {
		return err
	}

	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{CascadePath: %s, DetectorURL: %s, AspectRatio: %s, SmoothingWindow: %d, SmoothingOrder: %d, SampleCount: %d, SampleWidth: %d, TrackFPS: %g, LogFormat: %s, LogLevel: %s}",
		c.CascadePath,
		c.DetectorURL,
		c.AspectRatio,
		c.SmoothingWindow,
		c.SmoothingOrder,
		c.SampleCount,
		c.SampleWidth,
		c.TrackFPS,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
