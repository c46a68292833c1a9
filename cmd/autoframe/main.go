// Package main provides the autoframe command line driver.
// It plans the reframing of one segment of a video and writes the rendering
// plan for the external encoder to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maauso/autoframe/internal/bootstrap"
	"github.com/maauso/autoframe/internal/config"
	"github.com/maauso/autoframe/internal/segment"
	"github.com/maauso/autoframe/internal/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	input := flag.String("input", "", "path to the source video (required)")
	start := flag.Float64("start", 0, "segment start in seconds")
	end := flag.Float64("end", 0, "segment end in seconds (0 = end of video)")
	mode := flag.String("mode", string(segment.ModeAuto), "crop strategy: auto, crop or scale_pad")
	ratio := flag.String("ratio", "", "target aspect ratio (overrides ASPECT_RATIO)")
	sendcmd := flag.Bool("sendcmd", false, "emit an ffmpeg sendcmd script instead of a JSON plan")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		return fmt.Errorf("missing -input")
	}

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *ratio != "" {
		cfg.AspectRatio = *ratio
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting autoframe",
		slog.String("input", *input),
		slog.String("mode", *mode),
		slog.String("aspect_ratio", cfg.AspectRatio))

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := source.NewFFmpegSource(*input,
		source.WithFFmpegPath(cfg.FFmpegPath),
		source.WithFFprobePath(cfg.FFprobePath),
		source.WithSampleWidth(cfg.SampleWidth),
	)

	seg := segment.Segment{Start: *start, End: *end}
	if seg.End <= seg.Start {
		md, err := src.Metadata(ctx)
		if err != nil {
			return fmt.Errorf("probe input: %w", err)
		}
		seg.End = md.Duration
	}

	plan, err := deps.Processor.Process(ctx, src, seg, segment.Options{
		AspectRatio: cfg.AspectRatio,
		Mode:        segment.Mode(*mode),
		SampleCount: cfg.SampleCount,
		TrackFPS:    cfg.TrackFPS,
	})
	if err != nil {
		return fmt.Errorf("plan segment: %w", err)
	}

	if *sendcmd {
		script, err := plan.SendCmd()
		if err != nil {
			return err
		}
		fmt.Print(script)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
