package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type memorySink struct {
	dir  string
	name string
	data []byte
}

func (m *memorySink) WriteFile(_ context.Context, dir, filename string, data []byte) (string, error) {
	m.dir, m.name, m.data = dir, filename, data
	return filepath.Join(dir, filename), nil
}

func sampleOutcome() domain.GenerationOutcome {
	return domain.GenerationOutcome{
		RunID:      "0b9c2f4e-1111-2222-3333-444455556666",
		Status:     domain.OutcomePartial,
		StartedAt:  time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 20, 9, 0, 5, 0, time.UTC),
		Summary: domain.GenerationSummary{
			Requested: 2,
			Generated: 1,
			Recorded:  1,
			Skipped:   1,
			Failed:    1,
			Documents: []domain.GeneratedDocument{
				{IncidentCode: "INC-1", TemplateKey: "ABSENCE", TemplateVersion: 2, OutputPath: "/out/a.docx", Recorded: true},
			},
			SkippedIncidents: []domain.SkippedIncident{{IncidentCode: "INC-0", TemplateKey: "ABSENCE", TemplateVersion: 2}},
			Failures:         []domain.GenerationFailure{{IncidentCode: "INC-2", Stage: domain.StageWrite, Reason: "disk full"}},
		},
	}
}

func TestWriteRunReportProducesReadableWorkbook(t *testing.T) {
	sink := &memorySink{}
	reporter := NewXLSXReporter(sink)

	path, err := reporter.WriteRunReport(context.Background(), "/out", sampleOutcome())
	if err != nil {
		t.Fatalf("WriteRunReport() error = %v", err)
	}
	if path != "/out/generation-report_20260320-090000_0b9c2f4e.xlsx" {
		t.Fatalf("unexpected path %q", path)
	}

	f, err := excelize.OpenReader(bytes.NewReader(sink.data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetGenerated)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "INC-1" || rows[1][3] != "yes" {
		t.Fatalf("unexpected generated rows %v", rows)
	}

	failed, err := f.GetRows(sheetFailed)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(failed) != 2 || failed[1][1] != "write" {
		t.Fatalf("unexpected failed rows %v", failed)
	}

	status, err := f.GetCellValue(sheetSummary, "B2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if status != "partial" {
		t.Fatalf("unexpected status %q", status)
	}
}
