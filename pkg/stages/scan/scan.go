// Package scan implements the image enumeration stage.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/pushwork/pkg/pipeline"
	"github.com/user/pushwork/pkg/ports"
)

// Stage lists the image files of a single directory.
type Stage struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewStage creates a new scan stage.
func NewStage(fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		fs:     fs,
		logger: logger.WithComponent("scan"),
	}
}

// Execute returns the files in input.Dir whose extension is in
// input.Extensions, compared case-insensitively. Subdirectories are not
// searched. An empty result is not an error.
func (s *Stage) Execute(ctx context.Context, input pipeline.ScanInput) (pipeline.ScanResult, error) {
	result := pipeline.ScanResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	files, err := s.fs.ListFiles(input.Dir)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", input.Dir, err)
	}

	exts := input.Extensions
	if len(exts) == 0 {
		exts = pipeline.DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	for _, path := range files {
		if allowed[strings.ToLower(filepath.Ext(path))] {
			result.Paths = append(result.Paths, path)
		}
	}

	s.logger.Debug("Found %d images among %d files in %s", len(result.Paths), len(files), input.Dir)
	return result, nil
}

var _ pipeline.Stage[pipeline.ScanInput, pipeline.ScanResult] = (*Stage)(nil)
