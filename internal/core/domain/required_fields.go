package domain

import (
	"sort"
	"strings"
)

// RequiredFieldSet maps an incident type code to the placeholder names a
// template for that type must contain.
type RequiredFieldSet map[string][]string

func DefaultRequiredFields() RequiredFieldSet {
	return RequiredFieldSet{
		"JOB_ABANDONMENT": {"today", "code", "name", "incident_date", "observations"},
		"ABSENCE":         {"today", "code", "name", "incident_date"},
		"LATE_ARRIVAL":    {"today", "code", "name", "incident_date"},
	}
}

// Lookup returns a copy of the required names for a type code. An entry
// with no names counts as unconfigured.
func (s RequiredFieldSet) Lookup(typeCode string) ([]string, bool) {
	names, ok := s[strings.TrimSpace(typeCode)]
	if !ok || len(names) == 0 {
		return nil, false
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true
}

func (s RequiredFieldSet) Clone() RequiredFieldSet {
	out := make(RequiredFieldSet, len(s))
	for k, v := range s {
		names := make([]string, len(v))
		copy(names, v)
		out[k] = names
	}
	return out
}

func (s RequiredFieldSet) TypeCodes() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
