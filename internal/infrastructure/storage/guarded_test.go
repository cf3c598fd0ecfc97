package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/infrastructure/resilience"
)

type flakyStore struct {
	failures int
	saves    [][]byte
	opens    int
}

func (f *flakyStore) Save(_ context.Context, _ string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saves = append(f.saves, raw)
	if f.failures > 0 {
		f.failures--
		return domain.WrapError(domain.ErrTemporary, "save", errors.New("503"))
	}
	return nil
}

func (f *flakyStore) Open(context.Context, string) (io.ReadCloser, error) {
	f.opens++
	return nil, domain.WrapError(domain.ErrNotFound, "open", errors.New("no such key"))
}

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
	})
}

func TestGuardedSaveResendsFullBodyOnRetry(t *testing.T) {
	inner := &flakyStore{failures: 1}
	g := NewGuarded(inner, newTestExecutor(), "templates")

	if err := g.Save(context.Background(), "k", bytes.NewReader([]byte("payload"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(inner.saves) != 2 || string(inner.saves[1]) != "payload" {
		t.Fatalf("expected two full attempts, got %q", inner.saves)
	}
}

func TestGuardedOpenDoesNotRetryMissingObject(t *testing.T) {
	inner := &flakyStore{}
	g := NewGuarded(inner, newTestExecutor(), "templates")

	_, err := g.Open(context.Background(), "k")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if inner.opens != 1 {
		t.Fatalf("expected a single attempt, got %d", inner.opens)
	}
}
