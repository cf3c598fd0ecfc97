package docx

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

const testNamespace = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func buildDocx(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`},
		{"word/styles.xml", `<?xml version="1.0" encoding="UTF-8"?><w:styles ` + testNamespace + `></w:styles>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document ` + testNamespace + `><w:body>` + bodyXML + `</w:body></w:document>`},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			t.Fatalf("zip write %s: %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func para(runs ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, r := range runs {
		sb.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + r + `</w:t></w:r>`)
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

func table(cells ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl><w:tr>")
	for _, c := range cells {
		sb.WriteString("<w:tc>" + para(c) + "</w:tc>")
	}
	sb.WriteString("</w:tr></w:tbl>")
	return sb.String()
}

func paragraphTexts(t *testing.T, docxBytes []byte) []string {
	t.Helper()
	zr, err := openArchive(docxBytes)
	if err != nil {
		t.Fatalf("openArchive() error = %v", err)
	}
	body, err := readPart(zr, mainDocumentPart)
	if err != nil {
		t.Fatalf("readPart() error = %v", err)
	}
	paragraphs, err := scanParagraphs(body)
	if err != nil {
		t.Fatalf("scanParagraphs() error = %v", err)
	}
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		out = append(out, p.Text())
	}
	return out
}
