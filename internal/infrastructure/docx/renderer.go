package docx

import (
	"fmt"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// Placeholder names the renderer fills in.
const (
	PlaceholderToday        = "today"
	PlaceholderCode         = "code"
	PlaceholderName         = "name"
	PlaceholderIncidentDate = "incident_date"
	PlaceholderObservations = "observations"
)

// Renderer substitutes the fixed placeholder set paragraph by paragraph.
// A paragraph whose text changes is collapsed into its first text run, so
// tokens split across formatting runs are still found. Run styling inside
// such a paragraph is not kept.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(templateBytes []byte, docCtx domain.DocContext) ([]byte, error) {
	zr, err := openArchive(templateBytes)
	if err != nil {
		return nil, err
	}
	body, err := readPart(zr, mainDocumentPart)
	if err != nil {
		return nil, err
	}
	paragraphs, err := scanParagraphs(body)
	if err != nil {
		return nil, err
	}

	values := placeholderValues(docCtx)
	var patches []patch
	for _, p := range paragraphs {
		text := p.Text()
		replaced := replacePlaceholders(text, values)
		if replaced == text {
			continue
		}
		patches = append(patches, rewriteParagraph(p, replaced)...)
	}
	if len(patches) == 0 {
		return templateBytes, nil
	}

	out, err := rewriteArchive(zr, mainDocumentPart, applyPatches(body, patches))
	if err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return out, nil
}

func (r *Renderer) BuildFilename(companyClientName, code, workerFullName, workerNationalID, incidentTypeCode string) string {
	return BuildFilename(companyClientName, code, workerFullName, workerNationalID, incidentTypeCode)
}

func placeholderValues(docCtx domain.DocContext) map[string]string {
	return map[string]string{
		PlaceholderToday:        FormatLongDate(docCtx.Today),
		PlaceholderCode:         docCtx.Code,
		PlaceholderName:         docCtx.WorkerNameUpper,
		PlaceholderIncidentDate: FormatLongDate(docCtx.IncidentDate),
		PlaceholderObservations: docCtx.Observations,
	}
}

// replacePlaceholders leaves tokens with unknown names untouched.
func replacePlaceholders(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		m := placeholderPattern.FindStringSubmatch(token)
		if v, ok := values[m[1]]; ok {
			return v
		}
		return token
	})
}
