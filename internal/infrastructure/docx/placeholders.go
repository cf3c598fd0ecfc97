package docx

import (
	"regexp"
	"sort"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Scanner reads placeholder tokens out of the body and table cells of a
// .docx template.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

func (s *Scanner) ExtractPlaceholders(templateBytes []byte) (map[string]struct{}, error) {
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

	found := make(map[string]struct{})
	for _, p := range paragraphs {
		for _, m := range placeholderPattern.FindAllStringSubmatch(p.Text(), -1) {
			found[m[1]] = struct{}{}
		}
	}
	return found, nil
}

// AssertRequired fails with *domain.MissingPlaceholdersError naming every
// required name the template lacks. Extra placeholders are fine.
func (s *Scanner) AssertRequired(templateBytes []byte, required []string) error {
	found, err := s.ExtractPlaceholders(templateBytes)
	if err != nil {
		return err
	}
	return checkRequired(found, required)
}

func checkRequired(found map[string]struct{}, required []string) error {
	var missing []string
	seen := make(map[string]struct{}, len(required))
	for _, name := range required {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.MissingPlaceholdersError{Missing: missing}
}

// SortedNames lists a placeholder set deterministically.
func SortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
