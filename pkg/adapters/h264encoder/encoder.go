// Package h264encoder compresses frames into H.264 segment files.
//
// Frames are piped as raw RGBA into an ffmpeg process running libx264
// (4:2:0, no B-frames, short GOP). Every FramesPerSegment frames the
// process is finished and its output written as one segment file named
// after the unix time in milliseconds at which the segment was started.
// Segments are raw Annex B streams by default, or fragmented MP4 muxed with
// mp4ff.
package h264encoder

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/user/pushwork/pkg/ports"
)

// Container selects the segment file format.
type Container string

const (
	ContainerH264 Container = "h264"
	ContainerMP4  Container = "mp4"
)

// Valid reports whether c is a known container.
func (c Container) Valid() bool {
	return c == ContainerH264 || c == ContainerMP4
}

// Options configures the encoder.
type Options struct {
	FPS              float64
	GOP              int
	FramesPerSegment int
	Preset           string
	Profile          string
	Quality          int // 0-63, 0 = encoder default
	Bitrate          int // kbps, 0 = unset
	Container        Container
	OutputDir        string
}

// DefaultOptions returns the default encoder settings.
func DefaultOptions() Options {
	return Options{
		FPS:              10,
		GOP:              5,
		FramesPerSegment: 30,
		Preset:           "medium",
		Profile:          "main",
		Container:        ContainerH264,
		OutputDir:        ".",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FPS <= 0 {
		o.FPS = d.FPS
	}
	if o.GOP <= 0 {
		o.GOP = d.GOP
	}
	if o.FramesPerSegment <= 0 {
		o.FramesPerSegment = d.FramesPerSegment
	}
	if o.Preset == "" {
		o.Preset = d.Preset
	}
	if o.Profile == "" {
		o.Profile = d.Profile
	}
	if o.Container == "" {
		o.Container = d.Container
	}
	if o.OutputDir == "" {
		o.OutputDir = d.OutputDir
	}
	return o
}

// segmentEncoder is one encoder process producing a single segment.
type segmentEncoder interface {
	writeFrame(rgba []byte) error
	finish() ([]byte, error)
	kill()
	reap()
}

type segmentStarter func(width, height int, opts Options) (segmentEncoder, error)

// Encoder implements ports.FrameCompressor.
// It is driven by a single consumer; the mutex guards against misuse.
type Encoder struct {
	mu sync.Mutex

	fs     ports.FileSystem
	opts   Options
	start  segmentStarter
	lookup func() (string, error)
	now    func() time.Time

	width  int
	height int
	open   bool
	rgba   *image.RGBA

	cur       segmentEncoder
	curName   string
	curFrames int

	segments []string
	used     map[string]bool
}

// New creates an encoder writing segments through fs.
func New(fs ports.FileSystem, opts Options) *Encoder {
	return &Encoder{
		fs:     fs,
		opts:   opts.withDefaults(),
		start:  startFFmpeg,
		lookup: FindFFmpeg,
		now:    time.Now,
		used:   make(map[string]bool),
	}
}

// Options returns the effective options.
func (e *Encoder) Options() Options {
	return e.opts
}

// Open prepares the encoder for frames of the given size and checks that
// ffmpeg can be found. The first segment starts with the first frame.
func (e *Encoder) Open(width, height int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !e.opts.Container.Valid() {
		return fmt.Errorf("h264encoder: unknown container %q", e.opts.Container)
	}
	if e.lookup != nil {
		if _, err := e.lookup(); err != nil {
			return err
		}
	}
	if err := e.fs.MkdirAll(e.opts.OutputDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	e.width = width
	e.height = height
	e.rgba = image.NewRGBA(image.Rect(0, 0, width, height))
	e.open = true
	return nil
}

// Compress encodes one frame, rotating to a new segment when the current one
// is full. Cancelling ctx kills the running encoder process and discards the
// partial segment.
func (e *Encoder) Compress(ctx context.Context, img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), e.width, e.height)
	}

	if e.cur == nil {
		if err := e.beginSegment(); err != nil {
			return err
		}
	}

	draw.Draw(e.rgba, e.rgba.Bounds(), img, b.Min, draw.Src)

	seg := e.cur
	stop := context.AfterFunc(ctx, seg.kill)
	err := seg.writeFrame(e.rgba.Pix)
	stop()

	if ctx.Err() != nil {
		e.discardSegment()
		return ctx.Err()
	}
	if err != nil {
		e.discardSegment()
		return err
	}

	e.curFrames++
	if e.curFrames >= e.opts.FramesPerSegment {
		return e.finishSegment()
	}
	return nil
}

// Close finishes the current segment. The encoder can be opened again.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	e.open = false

	if e.cur == nil {
		return nil
	}
	return e.finishSegment()
}

// Segments returns the paths of the segments written so far, oldest first.
func (e *Encoder) Segments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.segments...)
}

func (e *Encoder) beginSegment() error {
	seg, err := e.start(e.width, e.height, e.opts)
	if err != nil {
		return err
	}
	name, err := e.nextName()
	if err != nil {
		seg.kill()
		seg.reap()
		return err
	}
	e.cur = seg
	e.curName = name
	e.curFrames = 0
	return nil
}

func (e *Encoder) finishSegment() error {
	seg, name := e.cur, e.curName
	e.cur, e.curName, e.curFrames = nil, "", 0

	stream, err := seg.finish()
	if err != nil {
		return err
	}

	data := stream
	if e.opts.Container == ContainerMP4 {
		data, err = muxMP4(stream, e.width, e.height, e.opts.FPS)
		if err != nil {
			return fmt.Errorf("mux %s: %w", name, err)
		}
	}

	if err := e.fs.WriteFile(name, data); err != nil {
		return fmt.Errorf("write segment %s: %w", name, err)
	}
	e.segments = append(e.segments, name)
	return nil
}

func (e *Encoder) discardSegment() {
	if e.cur == nil {
		return
	}
	e.cur.kill()
	e.cur.reap()
	e.cur, e.curName, e.curFrames = nil, "", 0
}

// nextName returns <dir>/<unix-ms>.<ext>, adding -1, -2, ... when a file of
// that name exists or was already handed out.
func (e *Encoder) nextName() (string, error) {
	base := strconv.FormatInt(e.now().UnixMilli(), 10)
	ext := "." + string(e.opts.Container)

	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = base + "-" + strconv.Itoa(i)
		}
		path := filepath.Join(e.opts.OutputDir, name+ext)
		if e.used[path] {
			continue
		}
		exists, err := e.fs.Exists(path)
		if err != nil {
			return "", fmt.Errorf("check segment name: %w", err)
		}
		if exists {
			continue
		}
		e.used[path] = true
		return path, nil
	}
}

var _ ports.FrameCompressor = (*Encoder)(nil)
