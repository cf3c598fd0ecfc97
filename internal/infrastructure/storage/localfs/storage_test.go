package localfs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func TestStorageSaveAndOpenNestedKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := "templates/firm-1/c-1/ABSENCE/v1.docx"
	if err := store.Save(context.Background(), key, bytes.NewReader([]byte("docx-bytes"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "docx-bytes" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestStorageSaveRefusesExistingKey(t *testing.T) {
	base := t.TempDir()
	store, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := "templates/firm-1/c-1/ABSENCE/v3.docx"
	if err := store.Save(context.Background(), key, bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	err = store.Save(context.Background(), key, bytes.NewReader([]byte("second")))
	if !errors.Is(err, domain.ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "first" {
		t.Fatalf("existing blob was replaced: %q", raw)
	}
	entries, err := os.ReadDir(filepath.Join(base, "templates", "firm-1", "c-1", "ABSENCE"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestStorageOpenMissingKeyIsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = store.Open(context.Background(), "templates/none.docx")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorageRejectsEscapingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = store.Save(context.Background(), "../outside.docx", bytes.NewReader(nil))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOutputDirCreatesDirectoryAndReplacesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "march", "acme")
	out := NewOutputDir()

	path, err := out.WriteFile(context.Background(), dir, "Acme__INC-1.docx", []byte("v1"))
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if path != filepath.Join(dir, "Acme__INC-1.docx") {
		t.Fatalf("unexpected path %q", path)
	}
	if _, err := out.WriteFile(context.Background(), dir, "Acme__INC-1.docx", []byte("v2")); err != nil {
		t.Fatalf("second WriteFile() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "v2" {
		t.Fatalf("expected replaced content, got %q", raw)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestOutputDirRejectsPathInFilename(t *testing.T) {
	out := NewOutputDir()
	_, err := out.WriteFile(context.Background(), t.TempDir(), "../x.docx", []byte("x"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
