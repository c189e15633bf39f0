package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		if translate != nil {
			f.translate = translate
		}
	}
}

// WithVersion adds the program version to the report footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Run Summary"))

	// Run
	fmt.Fprintf(&b, "## %s\n\n", t("Run"))
	f.header(&b)
	f.row(&b, "Worker ID", code(s.Run.WorkerID))
	f.row(&b, "Images Directory", code(s.Run.ImagesDir))
	f.row(&b, "Images Found", fmt.Sprintf("%d", s.Run.ImagesFound))
	f.row(&b, "Elapsed", formatDuration(s.Run.Elapsed))
	if s.Run.Interrupted {
		f.row(&b, "Status", t("Interrupted"))
	} else if s.Run.Error != "" {
		f.row(&b, "Status", t("Failed")+": "+s.Run.Error)
	} else {
		f.row(&b, "Status", t("Completed"))
	}
	b.WriteString("\n")

	// Frames
	fmt.Fprintf(&b, "## %s\n\n", t("Frames"))
	f.header(&b)
	f.row(&b, "Pushed", fmt.Sprintf("%d", s.Frames.Pushed))
	f.row(&b, "Compressed", fmt.Sprintf("%d", s.Frames.Compressed))
	f.row(&b, "Failed", fmt.Sprintf("%d", s.Frames.Failed))
	f.row(&b, "Dropped", fmt.Sprintf("%d", s.Frames.Dropped))
	f.row(&b, "Rejected", fmt.Sprintf("%d", s.Frames.Rejected))
	f.row(&b, "Load Failures", fmt.Sprintf("%d", s.Frames.LoadFailures))
	if s.Frames.Compressed > 0 {
		f.row(&b, "Average Cost", formatDuration(s.Frames.AverageCost))
	}
	b.WriteString("\n")

	// Shutdown
	fmt.Fprintf(&b, "## %s\n\n", t("Shutdown"))
	f.header(&b)
	f.row(&b, "Stop Timeout", formatDuration(s.Shutdown.Timeout))
	f.row(&b, "Stop Time", formatDuration(s.Shutdown.Elapsed))
	switch {
	case s.Shutdown.Abandoned:
		f.row(&b, "Outcome", t("Abandoned"))
	case s.Shutdown.Forced:
		f.row(&b, "Outcome", t("Forced"))
	case s.Shutdown.Drained:
		f.row(&b, "Outcome", t("Drained"))
	default:
		f.row(&b, "Outcome", "N/A")
	}
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.header(&b)
	f.row(&b, "Frame Size", fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height))
	f.row(&b, "Fit", s.Settings.Fit)
	f.row(&b, "Queue Size", fmt.Sprintf("%d", s.Settings.QueueSize))
	f.row(&b, "Enqueue Policy", s.Settings.EnqueuePolicy)
	f.row(&b, "Interval", formatDuration(s.Settings.Interval))
	f.row(&b, "Encoder", fmt.Sprintf("H.264 %s/%s, %g fps, GOP %d",
		s.Settings.Profile, s.Settings.Preset, s.Settings.FPS, s.Settings.GOP))
	f.row(&b, "Segment", fmt.Sprintf("%d frames, %s", s.Settings.FramesPerSegment, s.Settings.Container))
	b.WriteString("\n")

	// Segments
	fmt.Fprintf(&b, "## %s\n\n", t("Segments"))
	if len(s.Segments) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No segments were written."))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", t("File"), t("Codec"), t("Frames"), t("Size"))
		b.WriteString("|------|-------|-------:|-----:|\n")
		for _, seg := range s.Segments {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
				code(filepath.Base(seg.Path)), seg.Codec, seg.Frames, formatBytes(seg.Bytes))
		}
		fmt.Fprintf(&b, "\n%s: %s\n\n", t("Total"), formatBytes(s.TotalSegmentBytes()))
	}

	// Footer
	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (pushwork %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|------|-------|\n")
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate(label), value)
}

func code(s string) string {
	if s == "" {
		return "N/A"
	}
	return "`" + s + "`"
}

// formatDuration rounds to milliseconds.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0 ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// formatBytes formats bytes into human readable format.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
