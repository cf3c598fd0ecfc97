package usecase

import (
	"context"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// scopeEntry memoizes everything a run learns about one template scope.
// Failures are memoized too: resolution is invariant within a batch.
type scopeEntry struct {
	resolved   bool
	active     *domain.ActiveTemplate
	resolveErr error

	downloaded  bool
	bytes       []byte
	downloadErr error

	validated   bool
	validateErr error
}

// templateCache lives for exactly one run and is never shared.
type templateCache struct {
	registry *TemplateRegistry
	scope    domain.Scope
	entries  map[domain.TemplateScope]*scopeEntry
}

func newTemplateCache(registry *TemplateRegistry, scope domain.Scope) *templateCache {
	return &templateCache{
		registry: registry,
		scope:    scope,
		entries:  make(map[domain.TemplateScope]*scopeEntry),
	}
}

func (c *templateCache) entry(key domain.TemplateScope) *scopeEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &scopeEntry{}
		c.entries[key] = e
	}
	return e
}

func (c *templateCache) resolve(ctx context.Context, key domain.TemplateScope) (*domain.ActiveTemplate, error) {
	e := c.entry(key)
	if !e.resolved {
		e.active, e.resolveErr = c.registry.GetActiveTemplate(ctx, c.scope, key)
		e.resolved = true
	}
	return e.active, e.resolveErr
}

func (c *templateCache) download(ctx context.Context, key domain.TemplateScope, storagePath string) ([]byte, error) {
	e := c.entry(key)
	if !e.downloaded {
		e.bytes, e.downloadErr = c.registry.DownloadBytes(ctx, storagePath)
		e.downloaded = true
	}
	return e.bytes, e.downloadErr
}

func (c *templateCache) validate(key domain.TemplateScope, check func() error) error {
	e := c.entry(key)
	if !e.validated {
		e.validateErr = check()
		e.validated = true
	}
	return e.validateErr
}

func (c *templateCache) templateBytes(key domain.TemplateScope) []byte {
	if e, ok := c.entries[key]; ok {
		return e.bytes
	}
	return nil
}
