// Package report writes a spreadsheet summary next to the documents a
// generation run produced.
package report

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

const (
	sheetSummary   = "Summary"
	sheetGenerated = "Generated"
	sheetSkipped   = "Skipped"
	sheetFailed    = "Failed"
)

type XLSXReporter struct {
	sink ports.OutputSink
}

func NewXLSXReporter(sink ports.OutputSink) *XLSXReporter {
	return &XLSXReporter{sink: sink}
}

func (r *XLSXReporter) WriteRunReport(ctx context.Context, outputDir string, outcome domain.GenerationOutcome) (string, error) {
	raw, err := Build(outcome)
	if err != nil {
		return "", err
	}
	path, err := r.sink.WriteFile(ctx, outputDir, Filename(outcome), raw)
	if err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	return path, nil
}

func Filename(outcome domain.GenerationOutcome) string {
	runID := outcome.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("generation-report_%s_%s.xlsx", outcome.StartedAt.UTC().Format("20060102-150405"), runID)
}

// Build renders the workbook in memory.
func Build(outcome domain.GenerationOutcome) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	s := outcome.Summary
	summaryRows := [][]any{
		{"Run", outcome.RunID},
		{"Status", string(outcome.Status)},
		{"Started", outcome.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Finished", outcome.FinishedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Requested", s.Requested},
		{"Generated", s.Generated},
		{"Recorded", s.Recorded},
		{"Skipped", s.Skipped},
		{"Raced", s.Raced},
		{"Failed", s.Failed},
	}
	if err := writeRows(f, sheetSummary, summaryRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A"+strconv.Itoa(len(summaryRows)), header); err != nil {
		return nil, fmt.Errorf("style summary: %w", err)
	}

	generated := [][]any{{"Incident", "Template", "Version", "Recorded", "File"}}
	for _, doc := range s.Documents {
		generated = append(generated, []any{doc.IncidentCode, doc.TemplateKey, doc.TemplateVersion, yesNo(doc.Recorded), doc.OutputPath})
	}
	skipped := [][]any{{"Incident", "Template", "Version"}}
	for _, sk := range s.SkippedIncidents {
		skipped = append(skipped, []any{sk.IncidentCode, sk.TemplateKey, sk.TemplateVersion})
	}
	failed := [][]any{{"Incident", "Stage", "Reason"}}
	for _, fl := range s.Failures {
		failed = append(failed, []any{fl.IncidentCode, string(fl.Stage), fl.Reason})
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{sheetGenerated, generated},
		{sheetSkipped, skipped},
		{sheetFailed, failed},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return nil, err
		}
		last, err := excelize.CoordinatesToCellName(len(sheet.rows[0]), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet.name, "A1", last, header); err != nil {
			return nil, fmt.Errorf("style %s: %w", sheet.name, err)
		}
		if err := f.SetColWidth(sheet.name, "A", "E", 22); err != nil {
			return nil, fmt.Errorf("size %s: %w", sheet.name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
