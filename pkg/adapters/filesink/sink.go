// Package filesink writes debug output of a run to a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/pushwork/pkg/ports"
)

// Sink saves debug output to files under baseDir:
//
//	run.json              run result
//	frames/frame-NNNNNN.png  frames as pushed to the worker
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveRunJSON saves the run result.
func (s *Sink) SaveRunJSON(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "run.json"), data)
}

// SaveFrame saves a pushed frame as PNG.
func (s *Sink) SaveFrame(seq uint64, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", seq, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d.png", seq)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
