package mocks

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/user/pushwork/pkg/ports"
)

// Compressor is a mock implementation of ports.FrameCompressor.
// Delay simulates per-frame work and honours context cancellation.
type Compressor struct {
	mu sync.Mutex

	OpenFunc     func(width, height int) error
	CompressFunc func(ctx context.Context, img image.Image) error
	CloseFunc    func() error
	Delay        time.Duration

	// Recorded calls for verification
	OpenCalls    int
	Width        int
	Height       int
	Frames       []image.Image
	CloseCalls   int
	SegmentPaths []string
}

func (m *Compressor) Open(width, height int) error {
	m.mu.Lock()
	m.OpenCalls++
	m.Width = width
	m.Height = height
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(width, height)
	}
	return nil
}

func (m *Compressor) Compress(ctx context.Context, img image.Image) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.CompressFunc != nil {
		if err := m.CompressFunc(ctx, img); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, img)
	return nil
}

func (m *Compressor) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Compressor) Segments() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.SegmentPaths...)
}

// CompressedFrames returns a copy of the frames compressed so far, in order.
func (m *Compressor) CompressedFrames() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Image(nil), m.Frames...)
}

// Opened returns the number of Open calls.
func (m *Compressor) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.OpenCalls
}

// Closed returns the number of Close calls.
func (m *Compressor) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

var _ ports.FrameCompressor = (*Compressor)(nil)
