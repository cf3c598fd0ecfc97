package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// IncidentQuery loads candidate incidents ordered by incident date.
type IncidentQuery interface {
	ListIncidentsForGeneration(ctx context.Context, scope domain.Scope, filter domain.IncidentFilter) ([]domain.Incident, error)
}

// TemplateRepository persists template rows. It never holds template bytes.
type TemplateRepository interface {
	GetActive(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) (*domain.ActiveTemplate, error)
	MaxVersion(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) (int, error)
	// ActivateVersion deactivates the current active row of the scope and
	// inserts tpl as the new active row in one transaction.
	ActivateVersion(ctx context.Context, tpl *domain.Template) error
	List(ctx context.Context, scope domain.Scope, companyClientID string) ([]domain.Template, error)
	Deactivate(ctx context.Context, scope domain.Scope, templateID string) error
}

// GeneratedDocumentLedger is the append-only idempotence record.
type GeneratedDocumentLedger interface {
	Exists(ctx context.Context, scope domain.Scope, incidentID, templateKey string, templateVersion int) (bool, error)
	// Insert returns an error of kind domain.ErrDuplicateRecord when the
	// triple is already recorded.
	Insert(ctx context.Context, record *domain.GeneratedDocumentRecord) error
}

// ObjectStorage stores template blobs keyed by an opaque path. Save never
// replaces a blob: an existing key fails with domain.ErrDuplicateRecord.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// OutputSink durably persists generated documents, creating dir if missing.
type OutputSink interface {
	WriteFile(ctx context.Context, dir, filename string, data []byte) (string, error)
}

// PlaceholderScanner extracts and checks template placeholders.
type PlaceholderScanner interface {
	ExtractPlaceholders(templateBytes []byte) (map[string]struct{}, error)
	AssertRequired(templateBytes []byte, required []string) error
}

// DocumentRenderer substitutes placeholders and names the output file.
type DocumentRenderer interface {
	Render(templateBytes []byte, docCtx domain.DocContext) ([]byte, error)
	BuildFilename(companyClientName, code, workerFullName, workerNationalID, incidentTypeCode string) string
}

// RequiredFieldSource yields the current required-field configuration.
type RequiredFieldSource interface {
	RequiredFields() domain.RequiredFieldSet
}

// ChangeNotifier tells the caller's observers that entities changed.
type ChangeNotifier interface {
	TemplatesChanged(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) error
	DocumentsGenerated(ctx context.Context, scope domain.Scope, outcome domain.GenerationOutcome) error
}

// GenerationRecorder observes run results for metrics.
type GenerationRecorder interface {
	ObserveRun(status string, duration time.Duration, summary domain.GenerationSummary)
	ObserveRejections(count int)
}

// RunReporter writes a human-readable report of a finished run.
type RunReporter interface {
	WriteRunReport(ctx context.Context, outputDir string, outcome domain.GenerationOutcome) (string, error)
}

// Clock abstracts the generation date.
type Clock func() time.Time
