// Package load implements the stage that reads, decodes and fits one image.
package load

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/pushwork/pkg/pipeline"
	"github.com/user/pushwork/pkg/ports"
)

var (
	// ErrReadFailed is returned when the file cannot be read.
	ErrReadFailed = errors.New("load: read failed")

	// ErrDecodeFailed is returned when the file is not a decodable image.
	ErrDecodeFailed = errors.New("load: decode failed")
)

// Stage loads an image file and adapts it to the target size.
type Stage struct {
	fs       ports.FileSystem
	renderer ports.Renderer
}

// NewStage creates a new load stage.
func NewStage(fs ports.FileSystem, renderer ports.Renderer) *Stage {
	return &Stage{
		fs:       fs,
		renderer: renderer,
	}
}

// Execute reads input.Path, decodes it and applies input.Fit.
//
// FitStrict returns the decoded image unchanged, leaving size checks to the
// consumer. FitStretch scales to the target size. FitLetterbox scales
// preserving the aspect ratio, centred on a Background-filled canvas.
func (s *Stage) Execute(ctx context.Context, input pipeline.LoadInput) (pipeline.LoadResult, error) {
	result := pipeline.LoadResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	data, err := s.fs.ReadFile(input.Path)
	if err != nil {
		return result, fmt.Errorf("%w: %s: %v", ErrReadFailed, input.Path, err)
	}

	img, err := s.renderer.DecodeImage(data, ports.FormatFromPath(input.Path))
	if err != nil {
		return result, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, input.Path, err)
	}

	bounds := img.Bounds()
	result.OriginalSize = pipeline.Dimension{Width: bounds.Dx(), Height: bounds.Dy()}
	if result.OriginalSize.Width == 0 || result.OriginalSize.Height == 0 {
		return result, fmt.Errorf("%w: %s: empty image", ErrDecodeFailed, input.Path)
	}

	fit := input.Fit
	if fit == "" {
		fit = pipeline.FitStrict
	}
	if fit == pipeline.FitStrict || result.OriginalSize == input.Target {
		result.Image = img
		return result, nil
	}
	if input.Target.Width <= 0 || input.Target.Height <= 0 {
		return result, fmt.Errorf("load: invalid target size %dx%d", input.Target.Width, input.Target.Height)
	}

	switch fit {
	case pipeline.FitStretch:
		result.Image = s.renderer.ResizeImage(img, input.Target.Width, input.Target.Height)
	case pipeline.FitLetterbox:
		result.Image = s.letterbox(img, input.Target, input.Background)
	default:
		return result, fmt.Errorf("load: unknown fit mode %q", fit)
	}

	return result, nil
}

func (s *Stage) letterbox(img image.Image, target pipeline.Dimension, bg color.Color) image.Image {
	if bg == nil {
		bg = color.Black
	}
	rect := LetterboxRect(pipeline.Dimension{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, target)

	canvas := s.renderer.CreateCanvas(target.Width, target.Height, bg)
	canvas.DrawImageScaled(img, rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	return canvas.ToImage()
}

// LetterboxRect returns the largest rectangle with the aspect ratio of src
// that fits in target, centred.
func LetterboxRect(src, target pipeline.Dimension) image.Rectangle {
	w, h := target.Width, target.Height
	// Compare src.W/src.H with target.W/target.H without floating point
	if src.Width*target.Height > target.Width*src.Height {
		h = src.Height * target.Width / src.Width
	} else {
		w = src.Width * target.Height / src.Height
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x := (target.Width - w) / 2
	y := (target.Height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

var _ pipeline.Stage[pipeline.LoadInput, pipeline.LoadResult] = (*Stage)(nil)
