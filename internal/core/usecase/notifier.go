package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

// NopNotifier drops change notifications.
type NopNotifier struct{}

func (NopNotifier) TemplatesChanged(context.Context, domain.Scope, domain.TemplateScope) error {
	return nil
}

func (NopNotifier) DocumentsGenerated(context.Context, domain.Scope, domain.GenerationOutcome) error {
	return nil
}

// CallbackNotifier lets the caller register plain functions as observers.
type CallbackNotifier struct {
	OnTemplatesChanged   func(scope domain.Scope, tplScope domain.TemplateScope)
	OnDocumentsGenerated func(scope domain.Scope, outcome domain.GenerationOutcome)
}

func (n CallbackNotifier) TemplatesChanged(_ context.Context, scope domain.Scope, tplScope domain.TemplateScope) error {
	if n.OnTemplatesChanged != nil {
		n.OnTemplatesChanged(scope, tplScope)
	}
	return nil
}

func (n CallbackNotifier) DocumentsGenerated(_ context.Context, scope domain.Scope, outcome domain.GenerationOutcome) error {
	if n.OnDocumentsGenerated != nil {
		n.OnDocumentsGenerated(scope, outcome)
	}
	return nil
}

// LogNotifier records change events in the service log, so they remain
// visible when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) TemplatesChanged(_ context.Context, scope domain.Scope, tplScope domain.TemplateScope) error {
	n.logger().Info("templates_changed",
		"firm_id", scope.FirmID,
		"company_client_id", tplScope.CompanyClientID,
		"template_key", tplScope.TemplateKey,
	)
	return nil
}

func (n LogNotifier) DocumentsGenerated(_ context.Context, scope domain.Scope, outcome domain.GenerationOutcome) error {
	n.logger().Info("documents_generated",
		"firm_id", scope.FirmID,
		"run_id", outcome.RunID,
		"status", string(outcome.Status),
		"generated", outcome.Summary.Generated,
		"recorded", outcome.Summary.Recorded,
	)
	return nil
}

// MultiNotifier fans a notification out to several observers and returns
// the first error after calling all of them.
type MultiNotifier []ports.ChangeNotifier

func (m MultiNotifier) TemplatesChanged(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) error {
	var first error
	for _, n := range m {
		if err := n.TemplatesChanged(ctx, scope, tplScope); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiNotifier) DocumentsGenerated(ctx context.Context, scope domain.Scope, outcome domain.GenerationOutcome) error {
	var first error
	for _, n := range m {
		if err := n.DocumentsGenerated(ctx, scope, outcome); err != nil && first == nil {
			first = err
		}
	}
	return first
}
