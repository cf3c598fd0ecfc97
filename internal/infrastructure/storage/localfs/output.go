package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// OutputDir writes generated documents into caller-chosen directories.
// A file with the same name is replaced.
type OutputDir struct{}

func NewOutputDir() *OutputDir {
	return &OutputDir{}
}

func (o *OutputDir) WriteFile(ctx context.Context, dir, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "write output", errors.New("output directory is required"))
	}
	if filename == "" || filename != filepath.Base(filename) {
		return "", domain.WrapError(domain.ErrInvalidInput, "write output", fmt.Errorf("invalid filename %q", filename))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return path, nil
}
