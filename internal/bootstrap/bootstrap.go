// Package bootstrap provides dependency initialization for autoframe.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/autoframe/internal/config"
	"github.com/maauso/autoframe/internal/detect"
	"github.com/maauso/autoframe/internal/highlight"
	"github.com/maauso/autoframe/internal/segment"
	"github.com/maauso/autoframe/internal/smooth"
)

// Dependencies holds all initialized collaborators for the planner.
type Dependencies struct {
	Detector  detect.Detector
	Processor *segment.Processor
	Scorer    *highlight.Scorer
}

// NewDependencies creates and initializes all dependencies.
// A detector model that cannot be loaded is a startup failure: no crop
// planning can be served without it.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	detector, err := initDetector(cfg, logger)
	if err != nil {
		return nil, err
	}

	smoother, err := smooth.NewFilter(cfg.SmoothingWindow, cfg.SmoothingOrder)
	if err != nil {
		return nil, fmt.Errorf("create smoother: %w", err)
	}

	return &Dependencies{
		Detector:  detector,
		Processor: segment.NewProcessor(detector, smoother, logger),
		Scorer:    highlight.NewScorer(detector, cfg.SampleCount, logger),
	}, nil
}

// initDetector selects the detector backend: a remote detection service
// when configured, otherwise the in-process pigo cascade.
func initDetector(cfg *config.Config, logger *slog.Logger) (detect.Detector, error) {
	if cfg.DetectorURL != "" {
		logger.Info("using remote detector", slog.String("url", cfg.DetectorURL))

		detector, err := detect.NewRemoteDetector(cfg.DetectorURL)
		if err != nil {
			return nil, fmt.Errorf("create remote detector: %w", err)
		}
		return detector, nil
	}

	logger.Info("loading face cascade", slog.String("path", cfg.CascadePath))

	detector, err := detect.NewPigoDetector(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("load cascade: %w", err)
	}
	return detector, nil
}
