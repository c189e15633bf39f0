package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving the frames handed to the worker for later inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRunJSON saves the run result as JSON.
	SaveRunJSON(data []byte) error

	// SaveFrame saves a frame exactly as it was pushed to the worker.
	SaveFrame(seq uint64, img image.Image) error
}
