package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type generatorFake struct {
	got     domain.GenerationRequest
	outcome *domain.GenerationOutcome
	err     error
}

func (f *generatorFake) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GenerationOutcome, error) {
	f.got = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &domain.GenerationOutcome{RunID: "run-1", Status: domain.OutcomeCompleted}, nil
}

type templateManagerFake struct {
	uploadedScope domain.TemplateScope
	uploadedBytes []byte
	err           error
}

func (f *templateManagerFake) UploadTemplate(_ context.Context, scope domain.Scope, tplScope domain.TemplateScope, raw []byte) (*domain.Template, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.uploadedScope = tplScope
	f.uploadedBytes = raw
	return &domain.Template{ID: "tpl-1", FirmID: scope.FirmID, CompanyClientID: tplScope.CompanyClientID, TemplateKey: tplScope.TemplateKey, Version: 1, IsActive: true}, nil
}

func (f *templateManagerFake) ListTemplates(_ context.Context, scope domain.Scope, _ string) ([]domain.Template, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return []domain.Template{{ID: "tpl-1", Version: 2}}, nil
}

func (f *templateManagerFake) DeactivateTemplate(_ context.Context, _ domain.Scope, templateID string) error {
	if templateID == "missing" {
		return domain.WrapError(domain.ErrNotFound, "deactivate", context.Canceled)
	}
	return f.err
}

type queueFake struct {
	published []domain.GenerationRequest
	err       error
}

func (f *queueFake) PublishGenerationRequested(_ context.Context, req domain.GenerationRequest) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, req)
	return nil
}

func (f *queueFake) SubscribeGenerationRequested(context.Context, func(context.Context, domain.GenerationRequest) error) error {
	return nil
}

func testConfig() config.Config {
	return config.Config{
		GenerationMaxMessages: 14,
		GenerationOutputDir:   "/srv/output",
		APIMaxUploadBytes:     1 << 20,
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, &generatorFake{}, &templateManagerFake{}, &queueFake{}).Handler()
}
