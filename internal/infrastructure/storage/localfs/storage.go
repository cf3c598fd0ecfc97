package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// Storage keeps template blobs under a base directory. Keys are
// slash-separated and may nest. A key is written once: blobs are
// immutable after Save.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	raw, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}
	if err := writeFileExclusive(path, raw); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.WrapError(domain.ErrDuplicateRecord, "write blob", fmt.Errorf("key=%s already exists", key))
		}
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open blob", fmt.Errorf("key=%s", key))
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve blob key", fmt.Errorf("key=%q", key))
	}
	return filepath.Join(s.basePath, clean), nil
}

// writeFileAtomic writes through a temp file in the same directory, syncs
// it and renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	return publishTemp(path, data, os.Rename)
}

// writeFileExclusive is writeFileAtomic that refuses to replace an existing
// file. The hard link fails with fs.ErrExist when path is taken.
func writeFileExclusive(path string, data []byte) error {
	return publishTemp(path, data, os.Link)
}

func publishTemp(path string, data []byte, publish func(oldpath, newpath string) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := publish(tmpName, path); err != nil {
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
