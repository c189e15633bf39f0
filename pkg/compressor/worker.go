// Package compressor runs a background worker that takes decoded frames from
// a bounded queue and feeds them to a FrameCompressor.
//
// The caller owns the Worker: it is created with New, started with Init,
// fed with PutData and shut down with Stop. Stop waits for queued frames to
// be compressed up to a timeout, then cancels the worker and drops whatever
// is left.
package compressor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/user/pushwork/pkg/pipeline"
	"github.com/user/pushwork/pkg/ports"
	"github.com/user/pushwork/pkg/workqueue"
)

const (
	// DefaultForceGrace is how long a cancelled worker gets to exit.
	DefaultForceGrace = 2 * time.Second

	// DefaultStopTimeout is used by Close.
	DefaultStopTimeout = 3 * time.Second
)

// Config fixes the worker parameters at construction time.
type Config struct {
	QueueSize  int           // Queue capacity (must be > 0)
	Width      int           // Target frame width
	Height     int           // Target frame height
	ForceGrace time.Duration // Wait after forced cancellation (default: 2s)
}

// Worker is a single background consumer fed through a bounded queue.
type Worker struct {
	id         string
	cfg        Config
	queue      *workqueue.Queue[pipeline.Frame]
	compressor ports.FrameCompressor
	logger     ports.Logger

	mu           sync.Mutex
	state        State
	initializing bool // Open is in progress
	cancel       context.CancelFunc
	exited       chan struct{} // closed when the consumer goroutine returns
	stopped      chan struct{} // closed when the worker reaches StateStopped
	stopResult   StopResult

	enqueued   atomic.Uint64
	compressed atomic.Uint64
	failed     atomic.Uint64
	dropped    atomic.Uint64
	lastCost   atomic.Int64
	totalCost  atomic.Int64
}

// New creates a worker in the uninitialized state.
func New(cfg Config, compressor ports.FrameCompressor, logger ports.Logger) (*Worker, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	queue, err := workqueue.New[pipeline.Frame](cfg.QueueSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.ForceGrace <= 0 {
		cfg.ForceGrace = DefaultForceGrace
	}

	return &Worker{
		id:         uuid.NewString(),
		cfg:        cfg,
		queue:      queue,
		compressor: compressor,
		logger:     logger.WithComponent("compressor"),
		state:      StateUninitialized,
		exited:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// ID returns the unique worker identifier.
func (w *Worker) ID() string {
	return w.id
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done returns a channel that is closed once the worker is stopped.
func (w *Worker) Done() <-chan struct{} {
	return w.stopped
}

// Init opens the compressor and starts the consumer goroutine.
//
// Only the first successful call starts a consumer: calling Init on a
// running or initializing worker returns ErrAlreadyRunning, and after Stop
// it returns ErrStopped. If the compressor fails to open the worker stays
// uninitialized. The compressor is opened without holding the worker lock;
// a Stop issued meanwhile wins and the opened compressor is closed again.
//
// Cancelling ctx does not stop the worker; use Stop.
func (w *Worker) Init(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.state == StateRunning || w.initializing:
		w.mu.Unlock()
		return ErrAlreadyRunning
	case w.state == StateStopping || w.state == StateStopped:
		w.mu.Unlock()
		return ErrStopped
	}
	w.initializing = true
	w.mu.Unlock()

	err := w.compressor.Open(w.cfg.Width, w.cfg.Height)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.initializing = false

	if err != nil {
		return fmt.Errorf("open compressor: %w", err)
	}
	if w.state != StateUninitialized {
		if err := w.compressor.Close(); err != nil {
			w.logger.Warn("Failed to finalize compressor: %s", err)
		}
		return ErrStopped
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.state = StateRunning

	go w.run(runCtx)

	w.logger.Debug("Worker %s started: queue %d, target %dx%d", w.id, w.cfg.QueueSize, w.cfg.Width, w.cfg.Height)
	return nil
}

// PutData hands a frame to the worker, blocking while the queue is full.
// On success the worker owns the frame.
func (w *Worker) PutData(ctx context.Context, frame pipeline.Frame) error {
	if err := w.acceptingErr(); err != nil {
		return err
	}
	if err := w.queue.Put(ctx, frame); err != nil {
		if errors.Is(err, workqueue.ErrClosed) {
			return ErrStopped
		}
		return err
	}
	w.enqueued.Add(1)
	return nil
}

// TryPutData hands a frame to the worker without blocking.
// It returns workqueue.ErrQueueFull when the queue is at capacity.
func (w *Worker) TryPutData(frame pipeline.Frame) error {
	if err := w.acceptingErr(); err != nil {
		return err
	}
	if err := w.queue.TryPut(frame); err != nil {
		if errors.Is(err, workqueue.ErrClosed) {
			return ErrStopped
		}
		return err
	}
	w.enqueued.Add(1)
	return nil
}

func (w *Worker) acceptingErr() error {
	switch w.State() {
	case StateUninitialized:
		return ErrNotRunning
	case StateStopping, StateStopped:
		return ErrStopped
	}
	return nil
}

// Stop stops accepting frames and waits up to timeout for the queue to
// drain. When the timeout elapses the worker is cancelled, which aborts the
// frame being compressed, and given the force grace period to exit; a worker
// that still has not exited is abandoned. Frames left in the queue are
// dropped and counted.
//
// Stop is safe to call more than once; later calls wait for the first one and
// return its result.
func (w *Worker) Stop(timeout time.Duration) StopResult {
	w.mu.Lock()
	switch w.state {
	case StateUninitialized:
		w.state = StateStopped
		w.queue.Close()
		w.stopResult = StopResult{Drained: true}
		close(w.stopped)
		w.mu.Unlock()
		return w.stopResult
	case StateStopping, StateStopped:
		w.mu.Unlock()
		<-w.stopped
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.stopResult
	}
	w.state = StateStopping
	w.mu.Unlock()

	start := time.Now()
	w.logger.Debug("Stopping worker %s with %d queued frames (timeout %s)", w.id, w.queue.Len(), timeout)
	w.queue.Close()

	result := StopResult{}
	if w.waitExit(timeout) {
		result.Drained = true
	} else {
		result.Forced = true
		w.logger.Warn("Stop timeout of %s exceeded, terminating worker", timeout)
		w.cancel()
		if !w.waitExit(w.cfg.ForceGrace) {
			result.Abandoned = true
			w.logger.Error("Worker did not exit within %s, abandoning it", w.cfg.ForceGrace)
		}
	}
	w.cancel()

	if leftover := w.queue.Drain(); len(leftover) > 0 {
		w.dropped.Add(uint64(len(leftover)))
	}
	result.Dropped = int(w.dropped.Load())
	if result.Dropped > 0 {
		w.logger.Warn("Dropped %d frames without compression", result.Dropped)
	}
	result.Elapsed = time.Since(start)

	w.mu.Lock()
	w.state = StateStopped
	w.stopResult = result
	close(w.stopped)
	w.mu.Unlock()

	w.logger.Debug("Worker %s stopped in %s", w.id, result.Elapsed)
	return result
}

// Close stops the worker with DefaultStopTimeout.
func (w *Worker) Close() error {
	result := w.Stop(DefaultStopTimeout)
	if result.Abandoned {
		return fmt.Errorf("compressor: worker %s abandoned after forced stop", w.id)
	}
	return nil
}

// waitExit reports whether the consumer exited within d.
func (w *Worker) waitExit(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-w.exited:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.exited:
		return true
	case <-timer.C:
		return false
	}
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		ID:            w.id,
		State:         w.State(),
		QueueLen:      w.queue.Len(),
		QueueCap:      w.queue.Cap(),
		Enqueued:      w.enqueued.Load(),
		Compressed:    w.compressed.Load(),
		Failed:        w.failed.Load(),
		Dropped:       w.dropped.Load(),
		LastFrameCost: time.Duration(w.lastCost.Load()),
		TotalCost:     time.Duration(w.totalCost.Load()),
	}
}

// Segments returns the output files written by the compressor.
func (w *Worker) Segments() []string {
	return w.compressor.Segments()
}

// run is the consumer loop. It ends when the queue is closed and empty or
// the worker context is cancelled.
func (w *Worker) run(ctx context.Context) {
	defer close(w.exited)

	for {
		frame, err := w.queue.Take(ctx)
		if err != nil {
			break
		}
		if ctx.Err() != nil {
			w.dropped.Add(1)
			continue
		}
		w.process(ctx, frame)
	}

	if err := w.compressor.Close(); err != nil {
		w.logger.Warn("Failed to finalize compressor: %s", err)
	}
	w.logger.Debug("Consumer of worker %s finished", w.id)
}

// process compresses one frame. Errors are logged and counted, never fatal.
func (w *Worker) process(ctx context.Context, frame pipeline.Frame) {
	defer func() {
		if r := recover(); r != nil {
			w.failed.Add(1)
			w.logger.Error("Frame %d process error: %v", frame.Seq, r)
		}
	}()

	if err := w.validate(frame); err != nil {
		w.failed.Add(1)
		w.logger.Warn("Frame %d rejected: %s", frame.Seq, err)
		return
	}

	start := time.Now()
	err := w.compressor.Compress(ctx, frame.Image)
	cost := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			// Aborted by a forced stop
			w.dropped.Add(1)
			return
		}
		w.failed.Add(1)
		w.logger.Warn("Frame %d process error: %s", frame.Seq, err)
		return
	}

	w.compressed.Add(1)
	w.lastCost.Store(int64(cost))
	w.totalCost.Add(int64(cost))
	w.logger.Debug("Frame %d process time cost: %d ms", frame.Seq, cost.Milliseconds())
}

func (w *Worker) validate(frame pipeline.Frame) error {
	if frame.Image == nil {
		return ErrEmptyFrame
	}
	if frame.Width() != w.cfg.Width || frame.Height() != w.cfg.Height {
		return fmt.Errorf("%w: frame %dx%d vs target %dx%d",
			ErrFrameSizeMismatch, frame.Width(), frame.Height(), w.cfg.Width, w.cfg.Height)
	}
	return nil
}
