package main

import (
	"github.com/user/pushwork/pkg/adapters/codecdetect"
	"github.com/user/pushwork/pkg/config"
	"github.com/user/pushwork/pkg/driver"
	"github.com/user/pushwork/pkg/summarizer"
)

// buildSummary collects the run result and the configuration into a
// Summary. Segment files are inspected for their codec and frame count.
func buildSummary(cfg config.Config, result driver.RunResult, runErr error) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithRun(summarizer.RunInfo{
			WorkerID:    result.WorkerID,
			ImagesDir:   cfg.ImagesDir,
			ImagesFound: result.ImagesFound,
			Elapsed:     result.Elapsed,
			Interrupted: result.Interrupted,
		}).
		WithError(runErr).
		WithFrames(summarizer.FrameInfo{
			Pushed:       result.FramesPushed,
			LoadFailures: result.LoadFailures,
			Rejected:     result.Rejected,
			Compressed:   result.Stats.Compressed,
			Failed:       result.Stats.Failed,
			Dropped:      result.Stats.Dropped,
			AverageCost:  result.Stats.AverageCost(),
		}).
		WithShutdown(summarizer.ShutdownInfo{
			Timeout:   cfg.StopTimeout,
			Elapsed:   result.Stop.Elapsed,
			Drained:   result.Stop.Drained,
			Forced:    result.Stop.Forced,
			Abandoned: result.Stop.Abandoned,
		}).
		WithSettings(summarizer.Settings{
			Width:            cfg.Width,
			Height:           cfg.Height,
			Fit:              cfg.Fit,
			QueueSize:        cfg.QueueSize,
			EnqueuePolicy:    cfg.EnqueuePolicy,
			Interval:         cfg.Interval,
			FPS:              cfg.Encoder.FPS,
			GOP:              cfg.Encoder.GOP,
			FramesPerSegment: cfg.Encoder.FramesPerSegment,
			Preset:           cfg.Encoder.Preset,
			Profile:          cfg.Encoder.Profile,
			Container:        cfg.Encoder.Container,
		})

	for _, path := range result.Segments {
		seg := summarizer.SegmentInfo{Path: path, Codec: string(codecdetect.CodecUnknown)}
		if info, err := codecdetect.Inspect(path); err == nil {
			seg.Codec = string(info.Codec)
			seg.Frames = info.Frames
			seg.Bytes = int64(info.Bytes)
		}
		b.AddSegment(seg)
	}

	return b.Build()
}
