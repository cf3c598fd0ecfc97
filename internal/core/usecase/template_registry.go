package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

// maxVersionClaims bounds how many taken version keys an upload skips.
const maxVersionClaims = 5

// TemplateRegistry resolves active template versions and records uploads
// as new versions of their scope.
type TemplateRegistry struct {
	repo     ports.TemplateRepository
	storage  ports.ObjectStorage
	scanner  ports.PlaceholderScanner
	notifier ports.ChangeNotifier
	now      func() time.Time
}

func NewTemplateRegistry(
	repo ports.TemplateRepository,
	storage ports.ObjectStorage,
	scanner ports.PlaceholderScanner,
	notifier ports.ChangeNotifier,
) *TemplateRegistry {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TemplateRegistry{
		repo:     repo,
		storage:  storage,
		scanner:  scanner,
		notifier: notifier,
		now:      time.Now,
	}
}

// GetActiveTemplate returns the active version of a scope or an error of
// kind domain.ErrTemplateNotFound.
func (r *TemplateRegistry) GetActiveTemplate(
	ctx context.Context,
	scope domain.Scope,
	tplScope domain.TemplateScope,
) (*domain.ActiveTemplate, error) {
	tplScope = normalizeTemplateScope(tplScope)
	if err := tplScope.Validate(); err != nil {
		return nil, fmt.Errorf("get active template: %w", err)
	}
	active, err := r.repo.GetActive(ctx, scope, tplScope)
	if err != nil {
		return nil, fmt.Errorf("get active template: %w", err)
	}
	return active, nil
}

func (r *TemplateRegistry) DownloadBytes(ctx context.Context, storagePath string) ([]byte, error) {
	reader, err := r.storage.Open(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("open template blob: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read template blob: %w", err)
	}
	return raw, nil
}

// UploadTemplate writes the blob to a version-qualified path first and then
// swaps the active row. A failed swap leaves an unreferenced blob behind,
// which is never read.
func (r *TemplateRegistry) UploadTemplate(
	ctx context.Context,
	scope domain.Scope,
	tplScope domain.TemplateScope,
	fileBytes []byte,
) (*domain.Template, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	tplScope = normalizeTemplateScope(tplScope)
	if err := tplScope.Validate(); err != nil {
		return nil, fmt.Errorf("upload template: %w", err)
	}
	if len(fileBytes) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload template", errors.New("template file is empty"))
	}
	if _, err := r.scanner.ExtractPlaceholders(fileBytes); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload template", err)
	}

	current, err := r.repo.MaxVersion(ctx, scope, tplScope)
	if err != nil {
		return nil, fmt.Errorf("read current template version: %w", err)
	}
	tpl := &domain.Template{
		ID:              uuid.NewString(),
		FirmID:          scope.FirmID,
		CompanyClientID: tplScope.CompanyClientID,
		TemplateKey:     tplScope.TemplateKey,
		IsActive:        true,
		CreatedAt:       r.now().UTC(),
	}

	// Blobs are create-only. A taken key belongs to a concurrent upload or
	// to an orphan of a failed activation, so move on to the next version.
	for attempt := 1; ; attempt++ {
		tpl.Version = current + attempt
		tpl.StoragePath = domain.TemplateStoragePath(scope.FirmID, tplScope, tpl.Version)
		err := r.storage.Save(ctx, tpl.StoragePath, bytes.NewReader(fileBytes))
		if err == nil {
			break
		}
		if !domain.IsKind(err, domain.ErrDuplicateRecord) || attempt == maxVersionClaims {
			return nil, fmt.Errorf("save template blob: %w", err)
		}
		slog.Info("template_version_taken", "storage_path", tpl.StoragePath, "version", tpl.Version)
	}

	if err := r.repo.ActivateVersion(ctx, tpl); err != nil {
		slog.Warn("template_blob_orphaned",
			"storage_path", tpl.StoragePath,
			"version", tpl.Version,
			"error", err,
		)
		return nil, fmt.Errorf("activate template version: %w", err)
	}

	r.notifyTemplatesChanged(ctx, scope, tplScope)
	return tpl, nil
}

func (r *TemplateRegistry) ListTemplates(ctx context.Context, scope domain.Scope, companyClientID string) ([]domain.Template, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	templates, err := r.repo.List(ctx, scope, strings.TrimSpace(companyClientID))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRegistry) DeactivateTemplate(ctx context.Context, scope domain.Scope, templateID string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "deactivate template", errors.New("template id is required"))
	}
	if err := r.repo.Deactivate(ctx, scope, templateID); err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	r.notifyTemplatesChanged(ctx, scope, domain.TemplateScope{})
	return nil
}

func (r *TemplateRegistry) notifyTemplatesChanged(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) {
	if err := r.notifier.TemplatesChanged(ctx, scope, tplScope); err != nil {
		slog.Warn("templates_changed_notify_failed",
			"firm_id", scope.FirmID,
			"company_client_id", tplScope.CompanyClientID,
			"template_key", tplScope.TemplateKey,
			"error", err,
		)
	}
}

func normalizeTemplateScope(s domain.TemplateScope) domain.TemplateScope {
	return domain.TemplateScope{
		CompanyClientID: strings.TrimSpace(s.CompanyClientID),
		TemplateKey:     strings.TrimSpace(s.TemplateKey),
	}
}
