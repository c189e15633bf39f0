package compressor

import "errors"

var (
	// ErrInvalidConfig is returned by New when the queue size or target
	// dimensions are not positive.
	ErrInvalidConfig = errors.New("compressor: invalid worker configuration")

	// ErrAlreadyRunning is returned when Init is called on a running worker.
	ErrAlreadyRunning = errors.New("compressor: worker already running")

	// ErrNotRunning is returned when frames are pushed before Init.
	ErrNotRunning = errors.New("compressor: worker not running")

	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("compressor: worker stopped")

	// ErrFrameSizeMismatch is returned when a frame does not match the
	// target dimensions.
	ErrFrameSizeMismatch = errors.New("compressor: frame size does not match target")

	// ErrEmptyFrame is returned for frames without an image.
	ErrEmptyFrame = errors.New("compressor: frame has no image")
)
