package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when Compress is called before Open or after Close.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrInvalidDimensions is returned by Open for sizes libx264 cannot encode as 4:2:0.
	ErrInvalidDimensions = errors.New("h264encoder: width and height must be positive and even")

	// ErrFrameSize is returned when a frame does not match the opened size.
	ErrFrameSize = errors.New("h264encoder: frame size does not match encoder")

	// ErrEncodingFailed is returned when the ffmpeg process fails.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrNoFrames is returned when muxing a stream without access units.
	ErrNoFrames = errors.New("h264encoder: no frames to mux")

	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found in PATH")
)
