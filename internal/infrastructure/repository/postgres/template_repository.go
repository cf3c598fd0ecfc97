package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) GetActive(
	ctx context.Context,
	scope domain.Scope,
	tplScope domain.TemplateScope,
) (*domain.ActiveTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT storage_path, version
FROM document_templates
WHERE firm_id = $1 AND company_client_id = $2 AND template_key = $3 AND is_active
ORDER BY version DESC
LIMIT 1
`, scope.FirmID, tplScope.CompanyClientID, tplScope.TemplateKey)

	var active domain.ActiveTemplate
	if err := row.Scan(&active.StoragePath, &active.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTemplateNotFound, "get active template",
				fmt.Errorf("client=%s key=%s", tplScope.CompanyClientID, tplScope.TemplateKey))
		}
		return nil, fmt.Errorf("scan active template: %w", err)
	}
	if strings.TrimSpace(active.StoragePath) == "" || active.Version <= 0 {
		return nil, domain.WrapError(domain.ErrTemplateNotFound, "get active template",
			fmt.Errorf("client=%s key=%s has an unusable row", tplScope.CompanyClientID, tplScope.TemplateKey))
	}
	return &active, nil
}

func (r *TemplateRepository) MaxVersion(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(MAX(version), 0)
FROM document_templates
WHERE firm_id = $1 AND company_client_id = $2 AND template_key = $3
`, scope.FirmID, tplScope.CompanyClientID, tplScope.TemplateKey).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("max template version: %w", err)
	}
	return version, nil
}

// ActivateVersion runs deactivate-then-insert in one transaction. The
// partial unique index on active rows rejects a concurrent activation.
func (r *TemplateRepository) ActivateVersion(ctx context.Context, tpl *domain.Template) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
UPDATE document_templates
SET is_active = FALSE
WHERE firm_id = $1 AND company_client_id = $2 AND template_key = $3 AND is_active
`, tpl.FirmID, tpl.CompanyClientID, tpl.TemplateKey); err != nil {
		return fmt.Errorf("deactivate previous template: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO document_templates (
	id, firm_id, company_client_id, template_key, version, storage_path, is_active, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, tpl.ID, tpl.FirmID, tpl.CompanyClientID, tpl.TemplateKey, tpl.Version, tpl.StoragePath, true, tpl.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrDuplicateRecord, "insert template",
				fmt.Errorf("version %d already exists for %s/%s", tpl.Version, tpl.CompanyClientID, tpl.TemplateKey))
		}
		return fmt.Errorf("insert template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate tx: %w", err)
	}
	return nil
}

func (r *TemplateRepository) List(ctx context.Context, scope domain.Scope, companyClientID string) ([]domain.Template, error) {
	query := `
SELECT t.id, t.firm_id, t.company_client_id, COALESCE(c.name, ''), t.template_key, t.version,
	t.storage_path, t.is_active, t.created_at
FROM document_templates t
LEFT JOIN company_clients c ON c.id = t.company_client_id
WHERE t.firm_id = $1
`
	args := []any{scope.FirmID}
	if companyClientID != "" {
		query += "AND t.company_client_id = $2\n"
		args = append(args, companyClientID)
	}
	query += "ORDER BY t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Template, 0)
	for rows.Next() {
		var tpl domain.Template
		err := rows.Scan(
			&tpl.ID,
			&tpl.FirmID,
			&tpl.CompanyClientID,
			&tpl.CompanyClientName,
			&tpl.TemplateKey,
			&tpl.Version,
			&tpl.StoragePath,
			&tpl.IsActive,
			&tpl.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

func (r *TemplateRepository) Deactivate(ctx context.Context, scope domain.Scope, templateID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE document_templates
SET is_active = FALSE
WHERE id = $1 AND firm_id = $2
`, templateID, scope.FirmID)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate template rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "deactivate template", fmt.Errorf("id=%s", templateID))
	}
	return nil
}
