package docx

import (
	"regexp"
	"strings"
)

const maxFilenameRunes = 180

var (
	unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]+`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// BuildFilename joins the identifying fields with "__" in a fixed order and
// makes the result safe for any filesystem.
func BuildFilename(companyClientName, code, workerFullName, workerNationalID, incidentTypeCode string) string {
	base := strings.Join([]string{
		companyClientName,
		code,
		workerFullName,
		workerNationalID,
		incidentTypeCode,
	}, "__") + ".docx"
	return SafeFilename(base)
}

// SafeFilename replaces reserved and control characters, collapses
// whitespace and truncates after sanitizing.
func SafeFilename(name string) string {
	s := strings.TrimSpace(name)
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > maxFilenameRunes {
		return string(runes[:maxFilenameRunes])
	}
	return s
}
