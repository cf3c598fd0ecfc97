package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type incidentQueryFake struct {
	incidents []domain.Incident
	err       error
}

func (f *incidentQueryFake) ListIncidentsForGeneration(context.Context, domain.Scope, domain.IncidentFilter) ([]domain.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Incident, len(f.incidents))
	copy(out, f.incidents)
	return out, nil
}

type templateRepoFake struct {
	active      map[domain.TemplateScope]domain.ActiveTemplate
	maxVersion  int
	activated   []*domain.Template
	activateErr error
	deactivated []string
	getCalls    int
}

func newTemplateRepoFake() *templateRepoFake {
	return &templateRepoFake{active: make(map[domain.TemplateScope]domain.ActiveTemplate)}
}

func (f *templateRepoFake) GetActive(_ context.Context, _ domain.Scope, tplScope domain.TemplateScope) (*domain.ActiveTemplate, error) {
	f.getCalls++
	active, ok := f.active[tplScope]
	if !ok {
		return nil, domain.WrapError(domain.ErrTemplateNotFound, "get active", errors.New(tplScope.TemplateKey))
	}
	return &active, nil
}

func (f *templateRepoFake) MaxVersion(context.Context, domain.Scope, domain.TemplateScope) (int, error) {
	return f.maxVersion, nil
}

func (f *templateRepoFake) ActivateVersion(_ context.Context, tpl *domain.Template) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	copyTpl := *tpl
	f.activated = append(f.activated, &copyTpl)
	return nil
}

func (f *templateRepoFake) List(context.Context, domain.Scope, string) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(f.activated))
	for _, tpl := range f.activated {
		out = append(out, *tpl)
	}
	return out, nil
}

func (f *templateRepoFake) Deactivate(_ context.Context, _ domain.Scope, templateID string) error {
	if templateID == "missing" {
		return domain.WrapError(domain.ErrNotFound, "deactivate", errors.New(templateID))
	}
	f.deactivated = append(f.deactivated, templateID)
	return nil
}

type blobStorageFake struct {
	blobs   map[string][]byte
	opens   map[string]int
	saveErr error
	openErr error
}

func newBlobStorageFake() *blobStorageFake {
	return &blobStorageFake{blobs: make(map[string][]byte), opens: make(map[string]int)}
}

func (f *blobStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.blobs[key]; ok {
		return domain.WrapError(domain.ErrDuplicateRecord, "save blob", errors.New(key))
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.blobs[key] = raw
	return nil
}

func (f *blobStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.opens[key]++
	if f.openErr != nil {
		return nil, f.openErr
	}
	raw, ok := f.blobs[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open blob", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type ledgerFake struct {
	records     map[string]bool
	inserted    []*domain.GeneratedDocumentRecord
	insertErr   error
	existsErr   error
	existsCalls int
}

func newLedgerFake() *ledgerFake {
	return &ledgerFake{records: make(map[string]bool)}
}

func ledgerKey(incidentID, templateKey string, version int) string {
	return fmt.Sprintf("%s|%s|%d", incidentID, templateKey, version)
}

func (f *ledgerFake) Exists(_ context.Context, _ domain.Scope, incidentID, templateKey string, version int) (bool, error) {
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.records[ledgerKey(incidentID, templateKey, version)], nil
}

func (f *ledgerFake) Insert(_ context.Context, record *domain.GeneratedDocumentRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := ledgerKey(record.IncidentID, record.TemplateKey, record.TemplateVersion)
	if f.records[key] {
		return domain.WrapError(domain.ErrDuplicateRecord, "insert", errors.New(key))
	}
	f.records[key] = true
	copyRecord := *record
	f.inserted = append(f.inserted, &copyRecord)
	return nil
}

type sinkFake struct {
	files  map[string][]byte
	order  []string
	failOn string
}

func newSinkFake() *sinkFake {
	return &sinkFake{files: make(map[string][]byte)}
}

func (f *sinkFake) WriteFile(_ context.Context, dir, filename string, data []byte) (string, error) {
	if f.failOn != "" && strings.Contains(filename, f.failOn) {
		return "", errors.New("disk full")
	}
	path := filepath.Join(dir, filename)
	f.files[path] = data
	f.order = append(f.order, path)
	return path, nil
}

// scannerFake treats template bytes as plain text with {{name}} tokens.
type scannerFake struct {
	assertCalls int
}

func (f *scannerFake) ExtractPlaceholders(raw []byte) (map[string]struct{}, error) {
	if bytes.HasPrefix(raw, []byte("broken")) {
		return nil, errors.New("not a docx archive")
	}
	out := make(map[string]struct{})
	for _, part := range strings.Split(string(raw), "{{")[1:] {
		if end := strings.Index(part, "}}"); end > 0 {
			out[strings.TrimSpace(part[:end])] = struct{}{}
		}
	}
	return out, nil
}

func (f *scannerFake) AssertRequired(raw []byte, required []string) error {
	f.assertCalls++
	found, err := f.ExtractPlaceholders(raw)
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range required {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingPlaceholdersError{Missing: missing}
	}
	return nil
}

type rendererFake struct {
	failCode string
}

func (f *rendererFake) Render(_ []byte, docCtx domain.DocContext) ([]byte, error) {
	if f.failCode != "" && docCtx.Code == f.failCode {
		return nil, errors.New("corrupt template part")
	}
	return []byte(docCtx.Code + "|" + docCtx.WorkerNameUpper), nil
}

func (f *rendererFake) BuildFilename(client, code, worker, nationalID, typeCode string) string {
	return strings.Join([]string{client, code, worker, nationalID, typeCode}, "__") + ".docx"
}

type staticFields struct {
	set domain.RequiredFieldSet
}

func (f staticFields) RequiredFields() domain.RequiredFieldSet {
	return f.set
}

type recorderFake struct {
	runs       []string
	rejections int
}

func (f *recorderFake) ObserveRun(status string, _ time.Duration, _ domain.GenerationSummary) {
	f.runs = append(f.runs, status)
}

func (f *recorderFake) ObserveRejections(count int) {
	f.rejections += count
}

type reporterFake struct {
	outcomes []domain.GenerationOutcome
}

func (f *reporterFake) WriteRunReport(_ context.Context, outputDir string, outcome domain.GenerationOutcome) (string, error) {
	f.outcomes = append(f.outcomes, outcome)
	return filepath.Join(outputDir, "report.xlsx"), nil
}
