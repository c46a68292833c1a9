// Package source provides access to decoded video frames for the planning
// pipeline. The FrameSource interface is the boundary the core consumes;
// FFmpegSource implements it against the ffmpeg and ffprobe CLIs.
package source

import (
	"context"
	"image"
)

// Metadata describes a video stream.
type Metadata struct {
	// Width is the frame width in pixels.
	Width int
	// Height is the frame height in pixels.
	Height int
	// FPS is the average frame rate.
	FPS float64
	// Duration is the total duration in seconds.
	Duration float64
}

// FrameSource provides read access to decoded frames of one video.
// Frames are owned by the source's caller and treated as read-only.
type FrameSource interface {
	// Metadata returns the video's dimensions, frame rate and duration.
	Metadata(ctx context.Context) (Metadata, error)

	// Frames returns the decoded frames of the [start, end) time range,
	// sampled at the given frames-per-second rate.
	Frames(ctx context.Context, start, end, fps float64) ([]image.Image, error)

	// SampleFrames returns count frames evenly spaced across the
	// [start, end) time range. Implementations may return the frames at
	// a reduced resolution suited to preview analysis.
	SampleFrames(ctx context.Context, start, end float64, count int) ([]image.Image, error)
}
