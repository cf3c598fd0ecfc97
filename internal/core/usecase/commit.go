package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// commit renders, writes and records every pending incident in order.
// A written file plus its ledger row is final; nothing is rolled back.
func (uc *GenerateDocumentsUseCase) commit(
	ctx context.Context,
	req domain.GenerationRequest,
	plan *generationPlan,
	policy domain.FailurePolicy,
	summary *domain.GenerationSummary,
) error {
	today := uc.deps.Clock()

	for _, item := range plan.pending {
		failure, err := uc.commitOne(ctx, req, plan.cache, item, today, summary)
		if err == nil {
			continue
		}

		summary.Failed++
		summary.Failures = append(summary.Failures, failure)
		if policy == domain.FailurePolicyContinue && ctx.Err() == nil {
			continue
		}
		return &domain.CommitError{
			Failure: failure,
			Summary: *summary,
			Err:     err,
		}
	}
	return nil
}

func (uc *GenerateDocumentsUseCase) commitOne(
	ctx context.Context,
	req domain.GenerationRequest,
	cache *templateCache,
	item batchItem,
	today time.Time,
	summary *domain.GenerationSummary,
) (domain.GenerationFailure, error) {
	inc := item.incident
	code := strings.TrimSpace(inc.Code)
	fail := func(stage domain.FailureStage, err error) (domain.GenerationFailure, error) {
		return domain.GenerationFailure{
			IncidentID:   inc.ID,
			IncidentCode: code,
			Stage:        stage,
			Reason:       err.Error(),
		}, err
	}

	if err := ctx.Err(); err != nil {
		return fail(domain.StageRender, fmt.Errorf("generation cancelled: %w", err))
	}

	out, err := uc.deps.Renderer.Render(cache.templateBytes(item.tplScope), buildDocContext(today, inc))
	if err != nil {
		return fail(domain.StageRender, fmt.Errorf("render %s: %w", code, err))
	}

	filename := uc.deps.Renderer.BuildFilename(
		inc.CompanyClient.Name,
		code,
		inc.Worker.FullName,
		inc.Worker.NationalID,
		inc.IncidentTypeCode,
	)
	outputPath, err := uc.deps.Sink.WriteFile(ctx, req.OutputDir, filename, out)
	if err != nil {
		return fail(domain.StageWrite, fmt.Errorf("write %s: %w", code, err))
	}
	summary.Generated++

	doc := domain.GeneratedDocument{
		IncidentID:      inc.ID,
		IncidentCode:    code,
		TemplateKey:     item.tplScope.TemplateKey,
		TemplateVersion: item.active.Version,
		OutputPath:      outputPath,
	}

	// The record names the version that produced this file and nothing else.
	record := &domain.GeneratedDocumentRecord{
		ID:              uuid.NewString(),
		FirmID:          req.Scope.FirmID,
		CompanyClientID: item.tplScope.CompanyClientID,
		IncidentID:      inc.ID,
		TemplateKey:     item.tplScope.TemplateKey,
		TemplateVersion: item.active.Version,
		OutputPath:      outputPath,
		CreatedAt:       uc.deps.Clock().UTC(),
	}
	err = uc.deps.Ledger.Insert(ctx, record)
	switch {
	case err == nil:
		doc.Recorded = true
		summary.Recorded++
	case domain.IsKind(err, domain.ErrDuplicateRecord):
		summary.Raced++
		uc.deps.Logger.Warn("generated_document_already_recorded",
			"incident_code", code,
			"template_key", record.TemplateKey,
			"template_version", record.TemplateVersion,
		)
	default:
		summary.Documents = append(summary.Documents, doc)
		return fail(domain.StageRecord, fmt.Errorf("record %s: %w", code, err))
	}

	summary.Documents = append(summary.Documents, doc)
	return domain.GenerationFailure{}, nil
}

func buildDocContext(today time.Time, inc domain.Incident) domain.DocContext {
	return domain.DocContext{
		Today:           today,
		Code:            strings.TrimSpace(inc.Code),
		WorkerNameUpper: strings.ToUpper(strings.TrimSpace(inc.Worker.FullName)),
		IncidentDate:    inc.IncidentDate,
		Observations:    inc.Observations,
	}
}
