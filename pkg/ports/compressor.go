// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"
)

// FrameCompressor abstracts the compression backend consumed by the worker.
type FrameCompressor interface {
	// Open prepares the compressor for frames of the given dimensions.
	Open(width, height int) error

	// Compress encodes a single frame. A cancelled context aborts the
	// in-flight work.
	Compress(ctx context.Context, img image.Image) error

	// Close flushes pending output and releases resources.
	Close() error

	// Segments returns the paths of the output files written so far.
	Segments() []string
}
