package driver

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/pushwork/pkg/adapters/logger"
	"github.com/user/pushwork/pkg/mocks"
	"github.com/user/pushwork/pkg/pipeline"
)

// mockScanStage is a mock for the scan stage.
type mockScanStage struct {
	result pipeline.ScanResult
	err    error
}

func (m *mockScanStage) Execute(ctx context.Context, input pipeline.ScanInput) (pipeline.ScanResult, error) {
	if m.err != nil {
		return pipeline.ScanResult{}, m.err
	}
	return m.result, nil
}

// mockLoadStage returns a blank image of the target size and records the
// order in which paths were loaded. Paths listed in fail return an error.
type mockLoadStage struct {
	fail  map[string]bool
	paths []string
}

func (m *mockLoadStage) Execute(ctx context.Context, input pipeline.LoadInput) (pipeline.LoadResult, error) {
	m.paths = append(m.paths, input.Path)
	if m.fail[input.Path] {
		return pipeline.LoadResult{}, errors.New("corrupt image")
	}
	img := image.NewRGBA(image.Rect(0, 0, input.Target.Width, input.Target.Height))
	return pipeline.LoadResult{
		Image:        img,
		OriginalSize: input.Target,
	}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ImagesDir = "data"
	cfg.Width = 64
	cfg.Height = 48
	cfg.Interval = time.Millisecond
	cfg.Duration = 0
	cfg.MaxFrames = 5
	cfg.StopTimeout = time.Second
	cfg.ForceGrace = 100 * time.Millisecond
	return cfg
}

func newTestDriver(paths []string, load *mockLoadStage, comp *mocks.Compressor, sink *mocks.DebugSink) *Driver {
	scan := &mockScanStage{result: pipeline.ScanResult{Paths: paths}}
	return New(scan, load, comp, sink, logger.NewNoop())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ImagesDir != "./data" {
		t.Errorf("expected ./data, got %s", cfg.ImagesDir)
	}
	if cfg.Width != 2432 || cfg.Height != 2048 {
		t.Errorf("expected 2432x2048, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.QueueSize != 10 {
		t.Errorf("expected queue size 10, got %d", cfg.QueueSize)
	}
	if cfg.Interval != 200*time.Millisecond {
		t.Errorf("expected 200ms interval, got %s", cfg.Interval)
	}
	if cfg.Duration != time.Minute {
		t.Errorf("expected 60s duration, got %s", cfg.Duration)
	}
	if cfg.StopTimeout != 3*time.Second {
		t.Errorf("expected 3s stop timeout, got %s", cfg.StopTimeout)
	}
	if cfg.EnqueuePolicy != PolicyBlock {
		t.Errorf("expected block policy, got %s", cfg.EnqueuePolicy)
	}
}

func TestEnqueuePolicy_Valid(t *testing.T) {
	if !PolicyBlock.Valid() || !PolicyReject.Valid() {
		t.Error("known policies must be valid")
	}
	if EnqueuePolicy("drop-oldest").Valid() {
		t.Error("unknown policy must be invalid")
	}
}

func TestDriver_Run_MaxFrames(t *testing.T) {
	load := &mockLoadStage{}
	comp := &mocks.Compressor{}
	d := newTestDriver([]string{"data/a.jpg", "data/b.png"}, load, comp, mocks.NewDebugSink(false))

	result, err := d.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ImagesFound != 2 {
		t.Errorf("expected 2 images, got %d", result.ImagesFound)
	}
	if result.FramesPushed != 5 {
		t.Errorf("expected 5 frames pushed, got %d", result.FramesPushed)
	}
	if !result.Stop.Drained {
		t.Errorf("expected a drained stop, got %+v", result.Stop)
	}
	if result.Stats.Compressed != 5 {
		t.Errorf("expected 5 frames compressed, got %d", result.Stats.Compressed)
	}
	if len(comp.CompressedFrames()) != 5 {
		t.Errorf("expected 5 frames at the compressor, got %d", len(comp.CompressedFrames()))
	}
	if comp.Opened() != 1 || comp.Closed() != 1 {
		t.Errorf("expected one Open and one Close, got %d and %d", comp.Opened(), comp.Closed())
	}
	if comp.Width != 64 || comp.Height != 48 {
		t.Errorf("compressor opened with %dx%d", comp.Width, comp.Height)
	}
	if result.WorkerID == "" {
		t.Error("expected a worker ID")
	}
	if result.Interrupted {
		t.Error("run should not be marked interrupted")
	}
}

func TestDriver_Run_RoundRobin(t *testing.T) {
	load := &mockLoadStage{}
	d := newTestDriver([]string{"data/a.jpg", "data/b.png", "data/c.bmp"}, load, &mocks.Compressor{}, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.MaxFrames = 7
	if _, err := d.Run(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"data/a.jpg", "data/b.png", "data/c.bmp", "data/a.jpg", "data/b.png", "data/c.bmp", "data/a.jpg"}
	if len(load.paths) != len(want) {
		t.Fatalf("expected %d loads, got %d: %v", len(want), len(load.paths), load.paths)
	}
	for i := range want {
		if load.paths[i] != want[i] {
			t.Errorf("load %d: expected %s, got %s", i, want[i], load.paths[i])
		}
	}
}

func TestDriver_Run_SkipsFailedImages(t *testing.T) {
	load := &mockLoadStage{fail: map[string]bool{"data/b.png": true}}
	comp := &mocks.Compressor{}
	d := newTestDriver([]string{"data/a.jpg", "data/b.png"}, load, comp, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.MaxFrames = 3
	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a, b(fail), a, b(fail), a
	if result.FramesPushed != 3 {
		t.Errorf("expected 3 frames pushed, got %d", result.FramesPushed)
	}
	if result.LoadFailures != 2 {
		t.Errorf("expected 2 load failures, got %d", result.LoadFailures)
	}
	if len(load.paths) != 5 {
		t.Errorf("expected 5 loads, got %d", len(load.paths))
	}
}

func TestDriver_Run_NoDecodableImages(t *testing.T) {
	load := &mockLoadStage{fail: map[string]bool{"data/a.jpg": true, "data/b.png": true}}
	comp := &mocks.Compressor{}
	d := newTestDriver([]string{"data/a.jpg", "data/b.png"}, load, comp, mocks.NewDebugSink(false))

	result, err := d.Run(context.Background(), testConfig())
	if !errors.Is(err, ErrNoDecodableImages) {
		t.Fatalf("expected ErrNoDecodableImages, got %v", err)
	}
	if result.LoadFailures != 2 {
		t.Errorf("expected 2 load failures, got %d", result.LoadFailures)
	}
	if comp.Closed() != 1 {
		t.Error("worker must be stopped on the error path")
	}
}

func TestDriver_Run_NoImages(t *testing.T) {
	comp := &mocks.Compressor{}
	d := newTestDriver(nil, &mockLoadStage{}, comp, mocks.NewDebugSink(false))

	_, err := d.Run(context.Background(), testConfig())
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if comp.Opened() != 0 {
		t.Error("worker must not be started without images")
	}
}

func TestDriver_Run_ScanError(t *testing.T) {
	scan := pipeline.StageFunc[pipeline.ScanInput, pipeline.ScanResult](
		func(ctx context.Context, input pipeline.ScanInput) (pipeline.ScanResult, error) {
			return pipeline.ScanResult{}, errors.New("permission denied")
		})
	d := New(scan, &mockLoadStage{}, &mocks.Compressor{}, mocks.NewDebugSink(false), logger.NewNoop())

	if _, err := d.Run(context.Background(), testConfig()); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestDriver_Run_InitError(t *testing.T) {
	comp := &mocks.Compressor{
		OpenFunc: func(width, height int) error { return errors.New("ffmpeg not found") },
	}
	load := &mockLoadStage{}
	d := newTestDriver([]string{"data/a.jpg"}, load, comp, mocks.NewDebugSink(false))

	_, err := d.Run(context.Background(), testConfig())
	if err == nil {
		t.Fatal("expected init error")
	}
	if len(load.paths) != 0 {
		t.Error("no image should be loaded when the worker fails to start")
	}
}

func TestDriver_Run_InvalidWorkerConfig(t *testing.T) {
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, &mocks.Compressor{}, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.QueueSize = 0
	if _, err := d.Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for zero queue size")
	}
}

func TestDriver_Run_Duration(t *testing.T) {
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, &mocks.Compressor{}, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.MaxFrames = 0
	cfg.Interval = 5 * time.Millisecond
	cfg.Duration = 50 * time.Millisecond

	start := time.Now()
	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("run took %s, expected it to end after the duration", elapsed)
	}
	if result.FramesPushed == 0 {
		t.Error("expected at least one frame")
	}
}

func TestDriver_Run_Cancelled(t *testing.T) {
	comp := &mocks.Compressor{}
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, comp, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.MaxFrames = 0
	cfg.Duration = time.Hour
	cfg.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	result, err := d.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("cancellation should end the run cleanly, got %v", err)
	}
	if !result.Interrupted {
		t.Error("expected the run to be marked interrupted")
	}
	if comp.Closed() != 1 {
		t.Error("worker must be stopped after cancellation")
	}
	if uint64(result.FramesPushed) != result.Stats.Compressed+result.Stats.Failed+result.Stats.Dropped {
		t.Errorf("frames not accounted for: pushed %d, stats %+v", result.FramesPushed, result.Stats)
	}
}

func TestDriver_Run_RejectPolicy(t *testing.T) {
	comp := &mocks.Compressor{Delay: 40 * time.Millisecond}
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, comp, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.EnqueuePolicy = PolicyReject
	cfg.MaxFrames = 0
	cfg.Duration = 60 * time.Millisecond
	cfg.Interval = time.Millisecond

	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rejected == 0 {
		t.Error("expected frames to be rejected by a full queue")
	}
	if result.FramesPushed == 0 {
		t.Error("expected some frames to be accepted")
	}
}

func TestDriver_Run_StopTimeoutDropsFrames(t *testing.T) {
	comp := &mocks.Compressor{Delay: time.Second}
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, comp, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.MaxFrames = 3
	cfg.StopTimeout = 20 * time.Millisecond

	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Stop.Forced {
		t.Errorf("expected a forced stop, got %+v", result.Stop)
	}
	if result.Stop.Dropped == 0 {
		t.Error("expected dropped frames")
	}
	if result.Stats.Compressed != 0 {
		t.Errorf("expected no compressed frames, got %d", result.Stats.Compressed)
	}
}

func TestDriver_Run_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, &mocks.Compressor{}, sink)

	result, err := d.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.FrameCount() != result.FramesPushed {
		t.Errorf("expected %d debug frames, got %d", result.FramesPushed, sink.FrameCount())
	}
	if len(sink.RunJSON) == 0 {
		t.Fatal("expected run JSON")
	}

	var decoded RunResult
	if err := json.Unmarshal(sink.RunJSON, &decoded); err != nil {
		t.Fatalf("invalid run JSON: %v", err)
	}
	if decoded.FramesPushed != result.FramesPushed {
		t.Errorf("run JSON has %d frames, expected %d", decoded.FramesPushed, result.FramesPushed)
	}
}

func TestDriver_Run_DurationEndsBlockedPush(t *testing.T) {
	comp := &mocks.Compressor{Delay: time.Hour}
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, comp, mocks.NewDebugSink(false))

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.MaxFrames = 0
	cfg.Duration = 100 * time.Millisecond
	cfg.StopTimeout = 50 * time.Millisecond

	done := make(chan struct{})
	var (
		result RunResult
		err    error
	)
	go func() {
		defer close(done)
		result, err = d.Run(context.Background(), cfg)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run kept blocking on a full queue after the duration elapsed")
	}

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Interrupted {
		t.Error("an elapsed duration is not an interruption")
	}
	if !result.Stop.Forced {
		t.Errorf("expected a forced stop of the stuck worker, got %+v", result.Stop)
	}
	if comp.Closed() != 1 {
		t.Error("worker must be stopped after the duration elapsed")
	}
}

func TestDriver_Run_DebugSinkSkipsRejectedFrames(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	comp := &mocks.Compressor{Delay: 40 * time.Millisecond}
	d := newTestDriver([]string{"data/a.jpg"}, &mockLoadStage{}, comp, sink)

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.EnqueuePolicy = PolicyReject
	cfg.MaxFrames = 0
	cfg.Duration = 60 * time.Millisecond

	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rejected == 0 {
		t.Fatal("expected rejected frames")
	}
	if sink.FrameCount() != result.FramesPushed {
		t.Errorf("expected %d debug frames for accepted pushes, got %d", result.FramesPushed, sink.FrameCount())
	}
}
