// Package main provides the CLI entry point for pushwork.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/pushwork/pkg/adapters/codecdetect"
	"github.com/user/pushwork/pkg/adapters/filesink"
	"github.com/user/pushwork/pkg/adapters/ggrenderer"
	"github.com/user/pushwork/pkg/adapters/h264encoder"
	"github.com/user/pushwork/pkg/adapters/logger"
	"github.com/user/pushwork/pkg/adapters/nullsink"
	"github.com/user/pushwork/pkg/adapters/osfilesystem"
	"github.com/user/pushwork/pkg/config"
	"github.com/user/pushwork/pkg/driver"
	"github.com/user/pushwork/pkg/ports"
	"github.com/user/pushwork/pkg/stages/load"
	"github.com/user/pushwork/pkg/stages/scan"
	"github.com/user/pushwork/pkg/summarizer"
)

var version = "dev"

const (
	catSource   = "Source"
	catFrames   = "Frames"
	catDriver   = "Driver"
	catWorker   = "Worker"
	catEncoding = "Encoding"
	catOutput   = "Output"
	catDebug    = "Debug"
	catLogging  = "Logging"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pushwork",
		Usage:   l10n.T("Compress a stream of still images into H.264 segments"),
		Version: version,
		Description: l10n.T("pushwork loads images from a directory at a fixed rate and hands them to a " +
			"background worker that compresses them into H.264 segment files."),
		Commands: []*cli.Command{
			runCommand(),
			inspectCommand(),
			versionCommand(),
		},
	}
}

func runCommand() *cli.Command {
	d := config.Defaults()

	return &cli.Command{
		Name:  "run",
		Usage: l10n.T("Push images to the compression worker"),
		Description: l10n.T("Scan the images directory, push one image per interval to the worker " +
			"and stop the worker when the duration elapses or the process is interrupted."),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(catSource)},

			// Source
			&cli.StringFlag{Name: "images-dir", Aliases: []string{"i"}, Value: d.ImagesDir, Usage: l10n.T("Directory of input images"), Category: l10n.T(catSource)},
			&cli.StringSliceFlag{Name: "ext", Value: cli.NewStringSlice(d.Extensions...), Usage: l10n.T("Image file extensions to pick up"), Category: l10n.T(catSource)},

			// Frames
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Value: d.Width, Usage: l10n.T("Frame width in pixels (even)"), Category: l10n.T(catFrames)},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Value: d.Height, Usage: l10n.T("Frame height in pixels (even)"), Category: l10n.T(catFrames)},
			&cli.StringFlag{Name: "fit", Value: d.Fit, Usage: l10n.T("How images of another size are handled (strict, stretch, letterbox)"), Category: l10n.T(catFrames)},
			&cli.StringFlag{Name: "background", Value: d.Background, Usage: l10n.T("Letterbox background color (hex, e.g., #000000)"), Category: l10n.T(catFrames)},

			// Driver
			&cli.DurationFlag{Name: "interval", Value: d.Interval, Usage: l10n.T("Time between pushed frames"), Category: l10n.T(catDriver)},
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Value: d.Duration, Usage: l10n.T("Run length (0 = until interrupted or max frames)"), Category: l10n.T(catDriver)},
			&cli.IntFlag{Name: "max-frames", Usage: l10n.T("Stop after this many frames (0 = unlimited)"), Category: l10n.T(catDriver)},

			// Worker
			&cli.IntFlag{Name: "queue-size", Aliases: []string{"q"}, Value: d.QueueSize, Usage: l10n.T("Worker queue capacity"), Category: l10n.T(catWorker)},
			&cli.StringFlag{Name: "enqueue-policy", Value: d.EnqueuePolicy, Usage: l10n.T("Behaviour on a full queue (block, reject)"), Category: l10n.T(catWorker)},
			&cli.DurationFlag{Name: "stop-timeout", Value: d.StopTimeout, Usage: l10n.T("Time the worker gets to drain its queue on stop"), Category: l10n.T(catWorker)},
			&cli.DurationFlag{Name: "force-grace", Value: d.ForceGrace, Usage: l10n.T("Time a cancelled worker gets to exit"), Category: l10n.T(catWorker)},

			// Encoding
			&cli.Float64Flag{Name: "fps", Value: d.Encoder.FPS, Usage: l10n.T("Nominal frame rate of the segments"), Category: l10n.T(catEncoding)},
			&cli.IntFlag{Name: "gop", Value: d.Encoder.GOP, Usage: l10n.T("Keyframe interval in frames"), Category: l10n.T(catEncoding)},
			&cli.IntFlag{Name: "frames-per-segment", Value: d.Encoder.FramesPerSegment, Usage: l10n.T("Frames per segment file"), Category: l10n.T(catEncoding)},
			&cli.StringFlag{Name: "preset", Value: d.Encoder.Preset, Usage: l10n.T("x264 preset"), Category: l10n.T(catEncoding)},
			&cli.StringFlag{Name: "profile", Value: d.Encoder.Profile, Usage: l10n.T("H.264 profile"), Category: l10n.T(catEncoding)},
			&cli.IntFlag{Name: "quality", Usage: l10n.T("Video CRF value (0-63, lower is better, 0 = encoder default)"), Category: l10n.T(catEncoding)},
			&cli.IntFlag{Name: "bitrate", Usage: l10n.T("Target bitrate in kbps (0 = unset)"), Category: l10n.T(catEncoding)},
			&cli.StringFlag{Name: "ffmpeg-path", EnvVars: []string{"PUSHWORK_FFMPEG_PATH"}, Usage: l10n.T("Path to ffmpeg executable"), Category: l10n.T(catEncoding)},

			// Output
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Value: d.Encoder.OutputDir, Usage: l10n.T("Directory for segment files"), Category: l10n.T(catOutput)},
			&cli.StringFlag{Name: "container", Value: d.Encoder.Container, Usage: l10n.T("Segment container (h264, mp4)"), Category: l10n.T(catOutput)},
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: l10n.T("Output execution summary to file (Markdown, or JSON with a .json extension)"), Category: l10n.T(catOutput)},

			// Debug
			&cli.BoolFlag{Name: "debug", Usage: l10n.T("Save every pushed frame and the run result"), Category: l10n.T(catDebug)},
			&cli.StringFlag{Name: "debug-dir", Value: d.DebugDir, Usage: l10n.T("Directory for debug output"), Category: l10n.T(catDebug)},

			// Logging
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: d.LogLevel, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create logger
	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	h264encoder.SetFFmpegPath(cfg.Encoder.FFmpegPath)
	encoder := h264encoder.New(fs, cfg.EncoderOptions())

	// Create debug sink
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	// Create stages and driver
	drv := driver.New(
		scan.NewStage(fs, log),
		load.NewStage(fs, renderer),
		encoder,
		sink,
		log,
	)

	log.Info("Pushing images from %s to %s (%dx%d, queue %d)",
		cfg.ImagesDir, cfg.Encoder.OutputDir, cfg.Width, cfg.Height, cfg.QueueSize)

	result, runErr := drv.Run(ctx, cfg.ToDriverConfig())

	if path := c.String("summary"); path != "" {
		summary := buildSummary(cfg, result, runErr)
		if err := writeSummary(fs, path, summary); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}

	return runErr
}

// buildConfig starts from defaults or the --config file and applies every
// flag set on the command line.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("images-dir") {
		cfg.ImagesDir = c.String("images-dir")
	}
	if c.IsSet("ext") {
		cfg.Extensions = c.StringSlice("ext")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fit") {
		cfg.Fit = c.String("fit")
	}
	if c.IsSet("background") {
		cfg.Background = c.String("background")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	if c.IsSet("duration") {
		cfg.Duration = c.Duration("duration")
	}
	if c.IsSet("max-frames") {
		cfg.MaxFrames = c.Int("max-frames")
	}
	if c.IsSet("queue-size") {
		cfg.QueueSize = c.Int("queue-size")
	}
	if c.IsSet("enqueue-policy") {
		cfg.EnqueuePolicy = c.String("enqueue-policy")
	}
	if c.IsSet("stop-timeout") {
		cfg.StopTimeout = c.Duration("stop-timeout")
	}
	if c.IsSet("force-grace") {
		cfg.ForceGrace = c.Duration("force-grace")
	}
	if c.IsSet("fps") {
		cfg.Encoder.FPS = c.Float64("fps")
	}
	if c.IsSet("gop") {
		cfg.Encoder.GOP = c.Int("gop")
	}
	if c.IsSet("frames-per-segment") {
		cfg.Encoder.FramesPerSegment = c.Int("frames-per-segment")
	}
	if c.IsSet("preset") {
		cfg.Encoder.Preset = c.String("preset")
	}
	if c.IsSet("profile") {
		cfg.Encoder.Profile = c.String("profile")
	}
	if c.IsSet("quality") {
		cfg.Encoder.Quality = c.Int("quality")
	}
	if c.IsSet("bitrate") {
		cfg.Encoder.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.Encoder.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("output-dir") {
		cfg.Encoder.OutputDir = c.String("output-dir")
	}
	if c.IsSet("container") {
		cfg.Encoder.Container = c.String("container")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, nil
}

func writeSummary(fs ports.FileSystem, path string, summary *summarizer.Summary) error {
	var formatter summarizer.Formatter
	if strings.EqualFold(filepath.Ext(path), ".json") {
		formatter = summarizer.NewJSONFormatter()
	} else {
		formatter = summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		)
	}
	return summarizer.NewWriter(fs, formatter).Write(path, summary)
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     l10n.T("Show codec and frame count of segment files"),
		ArgsUsage: "<file>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New(l10n.T("At least one segment file is required"))
			}

			var failed int
			for _, path := range c.Args().Slice() {
				info, err := codecdetect.Inspect(path)
				if err != nil {
					fmt.Fprintln(os.Stderr, l10n.F("%s: %s", path, err))
					failed++
					continue
				}
				fmt.Println(l10n.F("%s: %s in %s, %dx%d, %d frames (%d keyframes), profile %s, %d bytes",
					info.Path, info.Codec, info.Container, info.Width, info.Height,
					info.Frames, info.Keyframes, info.Profile, info.Bytes))
			}
			if failed > 0 {
				return fmt.Errorf(l10n.T("%d of %d files could not be inspected"), failed, c.NArg())
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("pushwork version %s", version))
			return nil
		},
	}
}
