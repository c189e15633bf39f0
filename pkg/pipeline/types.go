package pipeline

import (
	"image"
	"image/color"
	"time"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Frame is one decoded image on its way to the compression worker.
// The producer owns it until the hand-off succeeds; after that the queue and
// then the worker own it. Pixel data is never copied along the way.
type Frame struct {
	Seq       uint64 // Assigned by the producer, increasing
	Source    string // Path of the file the image was decoded from
	Image     image.Image
	DecodedAt time.Time
}

// Width returns the frame width in pixels.
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Size returns the frame dimensions.
func (f Frame) Size() Dimension {
	return Dimension{Width: f.Width(), Height: f.Height()}
}

// Channels returns the number of color channels of the pixel format.
func (f Frame) Channels() int {
	switch f.Image.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.RGBA64, *image.NRGBA, *image.NRGBA64:
		return 4
	case *image.CMYK:
		return 4
	case nil:
		return 0
	default:
		// YCbCr, Paletted and anything decoded into a 3-component model
		return 3
	}
}

// PixelFormat returns a short name of the pixel format.
func (f Frame) PixelFormat() string {
	switch img := f.Image.(type) {
	case *image.Gray:
		return "gray8"
	case *image.Gray16:
		return "gray16"
	case *image.RGBA:
		return "rgba"
	case *image.RGBA64:
		return "rgba64"
	case *image.NRGBA:
		return "nrgba"
	case *image.NRGBA64:
		return "nrgba64"
	case *image.CMYK:
		return "cmyk"
	case *image.Paletted:
		return "pal8"
	case *image.YCbCr:
		switch img.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			return "yuv420p"
		case image.YCbCrSubsampleRatio422:
			return "yuv422p"
		case image.YCbCrSubsampleRatio444:
			return "yuv444p"
		default:
			return "ycbcr"
		}
	case nil:
		return "none"
	default:
		return "unknown"
	}
}

// =============================================================================
// Scan Stage Types
// =============================================================================

// DefaultExtensions lists the image file extensions picked up by the scanner.
var DefaultExtensions = []string{".jpg", ".png", ".bmp"}

// ScanInput contains parameters for image enumeration.
type ScanInput struct {
	Dir        string
	Extensions []string // Lower-case, with leading dot; empty means DefaultExtensions
}

// ScanResult contains the image files found, sorted by path.
type ScanResult struct {
	Paths []string
}

// =============================================================================
// Load Stage Types
// =============================================================================

// FitMode controls how decoded images are adapted to the target size.
type FitMode string

const (
	// FitStrict leaves the image untouched; the worker rejects mismatches.
	FitStrict FitMode = "strict"
	// FitStretch scales the image to the target size ignoring aspect ratio.
	FitStretch FitMode = "stretch"
	// FitLetterbox scales preserving aspect ratio and pads with Background.
	FitLetterbox FitMode = "letterbox"
)

// Valid reports whether m is a known fit mode.
func (m FitMode) Valid() bool {
	switch m {
	case FitStrict, FitStretch, FitLetterbox:
		return true
	}
	return false
}

// LoadInput contains parameters for loading a single image.
type LoadInput struct {
	Path       string
	Target     Dimension
	Fit        FitMode
	Background color.Color // Letterbox padding color
}

// LoadResult contains the decoded, fitted image.
type LoadResult struct {
	Image        image.Image
	OriginalSize Dimension
}
