// Package summarizer provides summary generation for pushwork runs.
package summarizer

import "time"

// Summary contains all data collected during one run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generatedAt"`

	// Run outcome
	Run RunInfo `json:"run"`

	// Frame accounting
	Frames FrameInfo `json:"frames"`

	// How the worker was stopped
	Shutdown ShutdownInfo `json:"shutdown"`

	// Run configuration
	Settings Settings `json:"settings"`

	// Output files
	Segments []SegmentInfo `json:"segments"`
}

// RunInfo describes the run as a whole.
type RunInfo struct {
	WorkerID    string        `json:"workerId"`
	ImagesDir   string        `json:"imagesDir"`
	ImagesFound int           `json:"imagesFound"`
	Elapsed     time.Duration `json:"elapsed"`
	Interrupted bool          `json:"interrupted"`
	Error       string        `json:"error,omitempty"`
}

// FrameInfo counts frames at each step of the pipeline.
type FrameInfo struct {
	Pushed       int           `json:"pushed"`
	LoadFailures int           `json:"loadFailures"`
	Rejected     int           `json:"rejected"`
	Compressed   uint64        `json:"compressed"`
	Failed       uint64        `json:"failed"`
	Dropped      uint64        `json:"dropped"`
	AverageCost  time.Duration `json:"averageCost"`
}

// ShutdownInfo describes the worker stop.
type ShutdownInfo struct {
	Timeout   time.Duration `json:"timeout"`
	Elapsed   time.Duration `json:"elapsed"`
	Drained   bool          `json:"drained"`
	Forced    bool          `json:"forced"`
	Abandoned bool          `json:"abandoned"`
}

// Settings contains the run configuration.
type Settings struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Fit           string        `json:"fit"`
	QueueSize     int           `json:"queueSize"`
	EnqueuePolicy string        `json:"enqueuePolicy"`
	Interval      time.Duration `json:"interval"`

	// Encoder
	FPS              float64 `json:"fps"`
	GOP              int     `json:"gop"`
	FramesPerSegment int     `json:"framesPerSegment"`
	Preset           string  `json:"preset"`
	Profile          string  `json:"profile"`
	Container        string  `json:"container"`
}

// SegmentInfo describes one output file.
type SegmentInfo struct {
	Path   string `json:"path"`
	Codec  string `json:"codec"`
	Frames int    `json:"frames"`
	Bytes  int64  `json:"bytes"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRun sets the run outcome.
func (b *Builder) WithRun(run RunInfo) *Builder {
	b.summary.Run = run
	return b
}

// WithError records the error that ended the run.
func (b *Builder) WithError(err error) *Builder {
	if err != nil {
		b.summary.Run.Error = err.Error()
	}
	return b
}

// WithFrames sets the frame counters.
func (b *Builder) WithFrames(frames FrameInfo) *Builder {
	b.summary.Frames = frames
	return b
}

// WithShutdown sets the stop outcome.
func (b *Builder) WithShutdown(shutdown ShutdownInfo) *Builder {
	b.summary.Shutdown = shutdown
	return b
}

// WithSettings sets the run configuration.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddSegment appends an output file.
func (b *Builder) AddSegment(segment SegmentInfo) *Builder {
	b.summary.Segments = append(b.summary.Segments, segment)
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// TotalSegmentBytes returns the combined size of all segments.
func (s *Summary) TotalSegmentBytes() int64 {
	var total int64
	for _, seg := range s.Segments {
		total += seg.Bytes
	}
	return total
}
