// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/pushwork/pkg/adapters/h264encoder"
	"github.com/user/pushwork/pkg/driver"
	"github.com/user/pushwork/pkg/pipeline"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for pushwork.
type Config struct {
	// Source
	ImagesDir  string   `yaml:"images_dir"`
	Extensions []string `yaml:"extensions"`

	// Frames
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fit        string `yaml:"fit"`
	Background string `yaml:"background"`

	// Driver
	Interval  time.Duration `yaml:"interval"`
	Duration  time.Duration `yaml:"duration"`
	MaxFrames int           `yaml:"max_frames"`

	// Worker
	QueueSize     int           `yaml:"queue_size"`
	EnqueuePolicy string        `yaml:"enqueue_policy"`
	StopTimeout   time.Duration `yaml:"stop_timeout"`
	ForceGrace    time.Duration `yaml:"force_grace"`

	// Encoding
	Encoder EncoderConfig `yaml:"encoder"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// EncoderConfig represents H.264 segment encoder settings.
type EncoderConfig struct {
	FPS              float64 `yaml:"fps"`
	GOP              int     `yaml:"gop"`
	FramesPerSegment int     `yaml:"frames_per_segment"`
	Preset           string  `yaml:"preset"`
	Profile          string  `yaml:"profile"`
	Quality          int     `yaml:"quality"`
	Bitrate          int     `yaml:"bitrate"`
	Container        string  `yaml:"container"`
	OutputDir        string  `yaml:"output_dir"`
	FFmpegPath       string  `yaml:"ffmpeg_path"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	d := driver.DefaultConfig()
	enc := h264encoder.DefaultOptions()

	return Config{
		ImagesDir:  d.ImagesDir,
		Extensions: append([]string(nil), d.Extensions...),

		Width:      d.Width,
		Height:     d.Height,
		Fit:        string(d.Fit),
		Background: "#000000",

		Interval: d.Interval,
		Duration: d.Duration,

		QueueSize:     d.QueueSize,
		EnqueuePolicy: string(d.EnqueuePolicy),
		StopTimeout:   d.StopTimeout,
		ForceGrace:    d.ForceGrace,

		Encoder: EncoderConfig{
			FPS:              enc.FPS,
			GOP:              enc.GOP,
			FramesPerSegment: enc.FramesPerSegment,
			Preset:           enc.Preset,
			Profile:          enc.Profile,
			Container:        string(enc.Container),
			OutputDir:        enc.OutputDir,
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.ImagesDir != "", "images_dir must be set")
	check(c.Width > 0 && c.Height > 0, "width and height must be positive, got %dx%d", c.Width, c.Height)
	check(c.Width%2 == 0 && c.Height%2 == 0, "width and height must be even, got %dx%d", c.Width, c.Height)
	check(pipeline.FitMode(c.Fit).Valid(), "fit must be strict, stretch or letterbox, got %q", c.Fit)
	check(c.Interval > 0, "interval must be positive, got %s", c.Interval)
	check(c.Duration >= 0, "duration must not be negative, got %s", c.Duration)
	check(c.MaxFrames >= 0, "max_frames must not be negative, got %d", c.MaxFrames)
	check(c.QueueSize > 0, "queue_size must be positive, got %d", c.QueueSize)
	check(driver.EnqueuePolicy(c.EnqueuePolicy).Valid(), "enqueue_policy must be block or reject, got %q", c.EnqueuePolicy)
	check(c.StopTimeout >= 0, "stop_timeout must not be negative, got %s", c.StopTimeout)
	check(c.Encoder.FPS > 0, "encoder.fps must be positive, got %g", c.Encoder.FPS)
	check(c.Encoder.GOP > 0, "encoder.gop must be positive, got %d", c.Encoder.GOP)
	check(c.Encoder.FramesPerSegment > 0, "encoder.frames_per_segment must be positive, got %d", c.Encoder.FramesPerSegment)
	check(c.Encoder.Quality >= 0 && c.Encoder.Quality <= 63, "encoder.quality must be within 0-63, got %d", c.Encoder.Quality)
	check(c.Encoder.Bitrate >= 0, "encoder.bitrate must not be negative, got %d", c.Encoder.Bitrate)
	check(h264encoder.Container(c.Encoder.Container).Valid(), "encoder.container must be h264 or mp4, got %q", c.Encoder.Container)
	if c.Background != "" {
		_, err := parseHex(c.Background)
		check(err == nil, "background must be a #rrggbb color, got %q", c.Background)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ParseColor parses a hex color string to color.Color.
// Invalid input yields black.
func ParseColor(hex string) color.Color {
	c, err := parseHex(hex)
	if err != nil {
		return color.Black
	}
	return c
}

func parseHex(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("expected 6 hex digits, got %q", hex)
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[2*i])
		lo, ok2 := hexValue(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid hex digit in %q", hex)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ToDriverConfig converts Config to driver.Config.
func (c Config) ToDriverConfig() driver.Config {
	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}

	return driver.Config{
		ImagesDir:  c.ImagesDir,
		Extensions: exts,

		Width:      c.Width,
		Height:     c.Height,
		Fit:        pipeline.FitMode(c.Fit),
		Background: ParseColor(c.Background),

		Interval:  c.Interval,
		Duration:  c.Duration,
		MaxFrames: c.MaxFrames,

		QueueSize:     c.QueueSize,
		EnqueuePolicy: driver.EnqueuePolicy(c.EnqueuePolicy),
		StopTimeout:   c.StopTimeout,
		ForceGrace:    c.ForceGrace,
	}
}

// EncoderOptions converts the encoder section to h264encoder.Options.
func (c Config) EncoderOptions() h264encoder.Options {
	return h264encoder.Options{
		FPS:              c.Encoder.FPS,
		GOP:              c.Encoder.GOP,
		FramesPerSegment: c.Encoder.FramesPerSegment,
		Preset:           c.Encoder.Preset,
		Profile:          c.Encoder.Profile,
		Quality:          c.Encoder.Quality,
		Bitrate:          c.Encoder.Bitrate,
		Container:        h264encoder.Container(c.Encoder.Container),
		OutputDir:        c.Encoder.OutputDir,
	}
}
