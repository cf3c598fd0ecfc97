package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// GeneratedDocumentRepository is the ledger of rendered documents. The
// unique key on (firm, incident, template key, version) is the final
// guard against two batches recording the same document.
type GeneratedDocumentRepository struct {
	db *sql.DB
}

func NewGeneratedDocumentRepository(db *sql.DB) *GeneratedDocumentRepository {
	return &GeneratedDocumentRepository{db: db}
}

func (r *GeneratedDocumentRepository) Exists(
	ctx context.Context,
	scope domain.Scope,
	incidentID, templateKey string,
	templateVersion int,
) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM generated_documents
	WHERE firm_id = $1 AND incident_id = $2 AND template_key = $3 AND template_version = $4
)
`, scope.FirmID, incidentID, templateKey, templateVersion).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check generated document: %w", err)
	}
	return exists, nil
}

func (r *GeneratedDocumentRepository) Insert(ctx context.Context, record *domain.GeneratedDocumentRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO generated_documents (
	id, firm_id, company_client_id, incident_id, template_key, template_version, output_path, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, record.FirmID, record.CompanyClientID, record.IncidentID,
		record.TemplateKey, record.TemplateVersion, record.OutputPath, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrDuplicateRecord, "insert generated document",
				fmt.Errorf("incident=%s key=%s version=%d", record.IncidentID, record.TemplateKey, record.TemplateVersion))
		}
		return fmt.Errorf("insert generated document: %w", err)
	}
	return nil
}
