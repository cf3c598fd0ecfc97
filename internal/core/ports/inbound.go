package ports

import (
	"context"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// DocumentGenerator is the inbound contract for batch document generation.
type DocumentGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationOutcome, error)
}

// TemplateManager is the inbound contract for template versioning.
type TemplateManager interface {
	UploadTemplate(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope, fileBytes []byte) (*domain.Template, error)
	ListTemplates(ctx context.Context, scope domain.Scope, companyClientID string) ([]domain.Template, error)
	DeactivateTemplate(ctx context.Context, scope domain.Scope, templateID string) error
}

// GenerationQueue hands generation requests to a background worker.
type GenerationQueue interface {
	PublishGenerationRequested(ctx context.Context, req domain.GenerationRequest) error
	SubscribeGenerationRequested(ctx context.Context, handler func(context.Context, domain.GenerationRequest) error) error
}
