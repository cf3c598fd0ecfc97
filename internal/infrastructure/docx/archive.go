package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

const mainDocumentPart = "word/document.xml"

func openArchive(raw []byte) (*zip.Reader, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("open docx: empty content")
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open docx: not a valid zip container: %w", err)
	}
	return zr, nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(f.Name), name) {
			return f
		}
	}
	return nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f := findPart(zr, name)
	if f == nil {
		return nil, fmt.Errorf("open docx: part not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open docx part %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// rewriteArchive copies every entry in order and replaces the content of
// the named part.
func rewriteArchive(zr *zip.Reader, name string, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		if f == nil {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(f.Name), name) {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy docx part %s: %w", f.Name, err)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create docx part %s: %w", f.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("write docx part %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx archive: %w", err)
	}
	return buf.Bytes(), nil
}
