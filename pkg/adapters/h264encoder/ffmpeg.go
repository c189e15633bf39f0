package h264encoder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

var (
	ffmpegPathMu     sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath sets the ffmpeg executable used by every encoder.
// An empty path restores the default lookup.
func SetFFmpegPath(path string) {
	ffmpegPathMu.Lock()
	defer ffmpegPathMu.Unlock()
	customFFmpegPath = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg locates the ffmpeg executable.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	ffmpegPathMu.RLock()
	custom := customFFmpegPath
	ffmpegPathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// ffmpegArgs builds the command line for one segment: raw RGBA frames on
// stdin, a raw H.264 Annex B elementary stream on stdout.
func ffmpegArgs(width, height int, opts Options) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-profile:v", opts.Profile,
		"-g", strconv.Itoa(opts.GOP),
		"-bf", "0",
		"-pix_fmt", "yuv420p",
	}

	if opts.Quality > 0 && opts.Quality <= 63 {
		// 0-63 scale to x264's CRF 0-51
		args = append(args, "-crf", strconv.Itoa(opts.Quality*51/63))
	}
	if opts.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
	}

	return append(args, "-f", "h264", "pipe:1")
}

// ffmpegSegment is one running ffmpeg process encoding a single segment.
type ffmpegSegment struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout bytes.Buffer
	stderr bytes.Buffer

	killOnce sync.Once
}

func startFFmpeg(width, height int, opts Options) (segmentEncoder, error) {
	path, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	s := &ffmpegSegment{}
	s.cmd = exec.Command(path, ffmpegArgs(width, height, opts)...)
	s.cmd.Stdout = &s.stdout
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return s, nil
}

func (s *ffmpegSegment) writeFrame(rgba []byte) error {
	if _, err := s.stdin.Write(rgba); err != nil {
		return fmt.Errorf("%w: write frame: %v", ErrEncodingFailed, err)
	}
	return nil
}

func (s *ffmpegSegment) finish() ([]byte, error) {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrEncodingFailed, err, s.stderrSuffix())
	}
	return s.stdout.Bytes(), nil
}

// kill terminates the process. Safe to call from another goroutine while
// writeFrame is blocked.
func (s *ffmpegSegment) kill() {
	s.killOnce.Do(func() {
		s.stdin.Close()
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
	})
}

// reap waits for a killed process so it does not linger as a zombie.
func (s *ffmpegSegment) reap() {
	s.cmd.Wait()
}

func (s *ffmpegSegment) stderrSuffix() string {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	return "\nstderr: " + msg
}
