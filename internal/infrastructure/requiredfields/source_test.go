package requiredfields

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

const sampleYAML = `
incident_types:
  ABSENCE: [today, code, name, incident_date]
  JOB_ABANDONMENT:
    - today
    - code
    - name
    - code
    - observations
`

func TestParseNormalizesNames(t *testing.T) {
	set, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	names, ok := set.Lookup("JOB_ABANDONMENT")
	if !ok || len(names) != 4 {
		t.Fatalf("expected duplicates removed, got %v", names)
	}
	if _, ok := set.Lookup("LATE_ARRIVAL"); ok {
		t.Fatalf("file replaces the defaults entirely")
	}
}

func TestParseRejectsInvalidPlaceholderName(t *testing.T) {
	_, err := Parse([]byte("incident_types:\n  ABSENCE: [\"incident-date\"]\n"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = Parse([]byte("other: 1\n"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty file, got %v", err)
	}
}

func TestNewFileSourceFallsBackToDefaults(t *testing.T) {
	src, err := NewFileSource("")
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if _, ok := src.RequiredFields().Lookup("LATE_ARRIVAL"); !ok {
		t.Fatalf("expected default set")
	}
}

func TestRequiredFieldsReturnsIndependentCopy(t *testing.T) {
	src := NewStatic(domain.RequiredFieldSet{"ABSENCE": {"code"}})
	snapshot := src.RequiredFields()
	snapshot["ABSENCE"][0] = "mutated"
	if src.RequiredFields()["ABSENCE"][0] != "code" {
		t.Fatalf("snapshot must not alias source state")
	}
}

func TestReloadKeepsPreviousSetOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "required_fields.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("incident_types: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := src.Reload(); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, ok := src.RequiredFields().Lookup("ABSENCE"); !ok {
		t.Fatalf("previous set must stay active")
	}
}

func TestWatchPicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "required_fields.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := src.Watch(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	updated := "incident_types:\n  OVERTIME: [code]\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := src.RequiredFields().Lookup("OVERTIME"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("watcher did not reload the file")
}
