package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type batchItem struct {
	incident domain.Incident
	tplScope domain.TemplateScope
	active   domain.ActiveTemplate
}

type generationPlan struct {
	pending []batchItem
	skipped []domain.SkippedIncident
	cache   *templateCache
}

// preflight validates every candidate without writing anything. Any
// rejection fails the whole batch with every rejection collected.
func (uc *GenerateDocumentsUseCase) preflight(
	ctx context.Context,
	scope domain.Scope,
	incidents []domain.Incident,
) (*generationPlan, error) {
	fields := uc.deps.Fields.RequiredFields()
	plan := &generationPlan{cache: newTemplateCache(uc.deps.Registry, scope)}
	var rejections []domain.Rejection

	for _, inc := range incidents {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("preflight interrupted: %w", err)
		}
		item, skip, rejection := uc.checkIncident(ctx, scope, fields, plan.cache, inc)
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		if skip {
			plan.skipped = append(plan.skipped, domain.SkippedIncident{
				IncidentID:      inc.ID,
				IncidentCode:    strings.TrimSpace(inc.Code),
				TemplateKey:     item.tplScope.TemplateKey,
				TemplateVersion: item.active.Version,
			})
			continue
		}
		plan.pending = append(plan.pending, item)
	}

	if len(rejections) > 0 {
		return nil, &domain.PreflightError{Rejections: rejections}
	}
	return plan, nil
}

func (uc *GenerateDocumentsUseCase) checkIncident(
	ctx context.Context,
	scope domain.Scope,
	fields domain.RequiredFieldSet,
	cache *templateCache,
	inc domain.Incident,
) (batchItem, bool, *domain.Rejection) {
	code := strings.TrimSpace(inc.Code)
	reject := func(format string, args ...any) (batchItem, bool, *domain.Rejection) {
		return batchItem{}, false, &domain.Rejection{
			IncidentID:   inc.ID,
			IncidentCode: code,
			Reason:       fmt.Sprintf(format, args...),
		}
	}

	if code == "" {
		return reject("has empty code (code was never assigned).")
	}
	if strings.TrimSpace(inc.Worker.FullName) == "" {
		return reject("worker full name is empty.")
	}
	if strings.TrimSpace(inc.Worker.NationalID) == "" {
		return reject("worker national id is empty.")
	}

	templateKey := inc.TemplateKey()
	if templateKey == "" {
		return reject("incident_type_code is empty.")
	}
	required, ok := fields.Lookup(templateKey)
	if !ok {
		return reject("no required fields configured for template key '%s'.", templateKey)
	}

	tplScope := domain.TemplateScope{
		CompanyClientID: strings.TrimSpace(inc.CompanyClient.ID),
		TemplateKey:     templateKey,
	}
	active, err := cache.resolve(ctx, tplScope)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemplateNotFound) {
			return reject("missing active template for client '%s' (%s).", inc.CompanyClient.Name, templateKey)
		}
		return reject("failed to resolve active template (%s): %v", templateKey, err)
	}

	skip, err := uc.deps.Dedup.AlreadyGenerated(ctx, scope, inc.ID, templateKey, active.Version)
	if err != nil {
		return reject("failed duplicate check against generated documents: %v", err)
	}

	raw, err := cache.download(ctx, tplScope, active.StoragePath)
	if err != nil {
		return reject("failed to download template (%s): %v", templateKey, err)
	}

	err = cache.validate(tplScope, func() error {
		return uc.deps.Scanner.AssertRequired(raw, required)
	})
	if err != nil {
		return reject("template '%s' v%d %v", templateKey, active.Version, err)
	}

	return batchItem{incident: inc, tplScope: tplScope, active: *active}, skip, nil
}
