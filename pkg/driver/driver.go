// Package driver feeds images from a directory into a compression worker at
// a fixed rate and stops the worker when the run ends.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/user/pushwork/pkg/compressor"
	"github.com/user/pushwork/pkg/pipeline"
	"github.com/user/pushwork/pkg/ports"
	"github.com/user/pushwork/pkg/workqueue"
)

var (
	// ErrNoImages is returned when the images directory holds no usable files.
	ErrNoImages = errors.New("driver: no images found")

	// ErrNoDecodableImages is returned when every image of a full cycle failed to load.
	ErrNoDecodableImages = errors.New("driver: no image could be decoded")
)

// EnqueuePolicy decides what happens when the worker queue is full.
type EnqueuePolicy string

const (
	// PolicyBlock waits for space in the queue.
	PolicyBlock EnqueuePolicy = "block"
	// PolicyReject skips the frame and counts it as rejected.
	PolicyReject EnqueuePolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p EnqueuePolicy) Valid() bool {
	return p == PolicyBlock || p == PolicyReject
}

// Config contains all configuration for a run.
type Config struct {
	// Source
	ImagesDir  string
	Extensions []string

	// Frames
	Width      int
	Height     int
	Fit        pipeline.FitMode
	Background color.Color

	// Pacing
	Interval  time.Duration
	Duration  time.Duration // 0 = until MaxFrames or cancellation
	MaxFrames int           // 0 = unlimited

	// Worker
	QueueSize     int
	EnqueuePolicy EnqueuePolicy
	StopTimeout   time.Duration
	ForceGrace    time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ImagesDir:  "./data",
		Extensions: pipeline.DefaultExtensions,

		Width:      2432,
		Height:     2048,
		Fit:        pipeline.FitStrict,
		Background: color.Black,

		Interval: 200 * time.Millisecond,
		Duration: 60 * time.Second,

		QueueSize:     10,
		EnqueuePolicy: PolicyBlock,
		StopTimeout:   compressor.DefaultStopTimeout,
		ForceGrace:    compressor.DefaultForceGrace,
	}
}

// RunResult summarises a run.
type RunResult struct {
	WorkerID     string                `json:"workerId"`
	ImagesFound  int                   `json:"imagesFound"`
	FramesPushed int                   `json:"framesPushed"`
	LoadFailures int                   `json:"loadFailures"`
	Rejected     int                   `json:"rejected"`
	Interrupted  bool                  `json:"interrupted"`
	Stats        compressor.Stats      `json:"stats"`
	Stop         compressor.StopResult `json:"stop"`
	Segments     []string              `json:"segments"`
	Elapsed      time.Duration         `json:"elapsed"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
}

// Driver runs the scan, load and hand-off loop.
type Driver struct {
	scanStage  pipeline.Stage[pipeline.ScanInput, pipeline.ScanResult]
	loadStage  pipeline.Stage[pipeline.LoadInput, pipeline.LoadResult]
	compressor ports.FrameCompressor
	sink       ports.DebugSink
	logger     ports.Logger
}

// New creates a new Driver.
func New(
	scanStage pipeline.Stage[pipeline.ScanInput, pipeline.ScanResult],
	loadStage pipeline.Stage[pipeline.LoadInput, pipeline.LoadResult],
	comp ports.FrameCompressor,
	sink ports.DebugSink,
	logger ports.Logger,
) *Driver {
	return &Driver{
		scanStage:  scanStage,
		loadStage:  loadStage,
		compressor: comp,
		sink:       sink,
		logger:     logger,
	}
}

// Run scans cfg.ImagesDir, starts a worker and pushes one image per
// interval, cycling through the images, until the duration elapses,
// MaxFrames frames were pushed or ctx is cancelled. The worker is always
// stopped with cfg.StopTimeout before Run returns, and cancellation counts
// as a normal end of the run.
func (d *Driver) Run(ctx context.Context, cfg Config) (RunResult, error) {
	start := time.Now()
	result := RunResult{Width: cfg.Width, Height: cfg.Height}

	scan, err := d.scanStage.Execute(ctx, pipeline.ScanInput{Dir: cfg.ImagesDir, Extensions: cfg.Extensions})
	if err != nil {
		d.logger.Error("Failed to scan %s: %s", cfg.ImagesDir, err)
		return result, fmt.Errorf("scan stage: %w", err)
	}
	result.ImagesFound = len(scan.Paths)
	if len(scan.Paths) == 0 {
		d.logger.Error("No images found in %s", cfg.ImagesDir)
		return result, fmt.Errorf("%w in %s", ErrNoImages, cfg.ImagesDir)
	}
	d.logger.Info("Found %d images in %s", len(scan.Paths), cfg.ImagesDir)

	worker, err := compressor.New(compressor.Config{
		QueueSize:  cfg.QueueSize,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ForceGrace: cfg.ForceGrace,
	}, d.compressor, d.logger)
	if err != nil {
		return result, err
	}
	result.WorkerID = worker.ID()

	if err := worker.Init(ctx); err != nil {
		d.logger.Error("Failed to start worker: %s", err)
		result.Stop = worker.Stop(cfg.StopTimeout)
		return result, fmt.Errorf("init worker: %w", err)
	}
	d.logger.Info("Worker %s started, pushing a frame every %s", worker.ID(), cfg.Interval)

	runErr := d.loop(ctx, cfg, scan.Paths, worker, &result)
	if ctx.Err() != nil {
		result.Interrupted = true
		d.logger.Warn("Interrupted, stopping worker...")
	}

	d.logger.Info("Stopping worker (timeout %s)", cfg.StopTimeout)
	result.Stop = worker.Stop(cfg.StopTimeout)
	result.Stats = worker.Stats()
	result.Segments = worker.Segments()
	result.Elapsed = time.Since(start)

	if result.Stop.Forced {
		d.logger.Warn("Worker was terminated after %s, %d frames dropped", cfg.StopTimeout, result.Stop.Dropped)
	}
	d.logger.Info("Pushed %d frames, compressed %d, %d segments written",
		result.FramesPushed, result.Stats.Compressed, len(result.Segments))

	if d.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			if err := d.sink.SaveRunJSON(data); err != nil {
				d.logger.Warn("Failed to save debug output: %s", err)
			}
		}
	}

	return result, runErr
}

func (d *Driver) loop(ctx context.Context, cfg Config, paths []string, worker *compressor.Worker, result *RunResult) error {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// The run duration bounds loading and blocking pushes as well as the
	// wait between ticks. Its expiry ends the run normally.
	loopCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		loopCtx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var (
		next         int
		seq          uint64
		failedInARow int
		policy       = cfg.EnqueuePolicy
	)
	if policy == "" {
		policy = PolicyBlock
	}

	for {
		path := paths[next%len(paths)]
		next++

		loaded, err := d.loadStage.Execute(loopCtx, pipeline.LoadInput{
			Path:       path,
			Target:     pipeline.Dimension{Width: cfg.Width, Height: cfg.Height},
			Fit:        cfg.Fit,
			Background: cfg.Background,
		})
		switch {
		case loopCtx.Err() != nil:
			return nil
		case err != nil:
			result.LoadFailures++
			failedInARow++
			d.logger.Warn("Skipping %s: %s", path, err)
			if failedInARow >= len(paths) {
				d.logger.Error("None of the %d images could be loaded", len(paths))
				return ErrNoDecodableImages
			}
		default:
			failedInARow = 0
			frame := pipeline.Frame{
				Seq:       seq,
				Source:    path,
				Image:     loaded.Image,
				DecodedAt: time.Now(),
			}

			if policy == PolicyReject {
				err = worker.TryPutData(frame)
			} else {
				err = worker.PutData(loopCtx, frame)
			}
			switch {
			case err == nil:
				seq++
				result.FramesPushed++
				d.logger.Debug("Pushed frame %d from %s", frame.Seq, path)
				if d.sink.Enabled() {
					if err := d.sink.SaveFrame(frame.Seq, frame.Image); err != nil {
						d.logger.Warn("Failed to save debug frame %d: %s", frame.Seq, err)
					}
				}
			case errors.Is(err, workqueue.ErrQueueFull):
				result.Rejected++
				d.logger.Warn("Queue full, frame from %s rejected", path)
			case loopCtx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("push frame: %w", err)
			}

			if cfg.MaxFrames > 0 && result.FramesPushed >= cfg.MaxFrames {
				return nil
			}
		}

		select {
		case <-loopCtx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
