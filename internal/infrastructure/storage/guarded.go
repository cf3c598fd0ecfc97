// Package storage holds the template blob stores and the retry decorator
// shared by them.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/incident-docs/internal/core/ports"
	"github.com/kirillkom/incident-docs/internal/infrastructure/resilience"
)

// Guarded runs blob operations through a resilience executor. Save buffers
// the payload so each retry sends the full body.
type Guarded struct {
	inner    ports.ObjectStorage
	executor *resilience.Executor
	name     string
}

func NewGuarded(inner ports.ObjectStorage, executor *resilience.Executor, name string) *Guarded {
	if name == "" {
		name = "blob"
	}
	return &Guarded{inner: inner, executor: executor, name: name}
}

func (g *Guarded) Save(ctx context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("buffer blob: %w", err)
	}
	op := g.name + ".save"
	err = g.executor.Execute(ctx, op, func(ctx context.Context) error {
		return g.inner.Save(ctx, key, bytes.NewReader(raw))
	}, resilience.ClassifyTemporary)
	return resilience.WrapTemporary(op, err, resilience.ClassifyTemporary)
}

func (g *Guarded) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	op := g.name + ".open"
	rc, err := resilience.Call(ctx, g.executor, op, func(ctx context.Context) (io.ReadCloser, error) {
		return g.inner.Open(ctx, key)
	}, resilience.ClassifyTemporary)
	if err != nil {
		return nil, resilience.WrapTemporary(op, err, resilience.ClassifyTemporary)
	}
	return rc, nil
}
