// Package requiredfields loads the per incident type placeholder
// requirements from YAML and keeps them current while the file changes.
package requiredfields

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type fileFormat struct {
	IncidentTypes map[string][]string `yaml:"incident_types"`
}

// Source serves a snapshot of the required-field set. Each call to
// RequiredFields returns an independent copy.
type Source struct {
	path    string
	current atomic.Pointer[domain.RequiredFieldSet]
}

// NewStatic serves a fixed set.
func NewStatic(set domain.RequiredFieldSet) *Source {
	s := &Source{}
	s.store(set)
	return s
}

// NewFileSource loads path, or serves the built-in defaults when path is empty.
func NewFileSource(path string) (*Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewStatic(domain.DefaultRequiredFields()), nil
	}
	set, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Source{path: path}
	s.store(set)
	return s, nil
}

func (s *Source) RequiredFields() domain.RequiredFieldSet {
	return (*s.current.Load()).Clone()
}

func (s *Source) Path() string {
	return s.path
}

// Reload replaces the snapshot from disk. A file that fails to parse
// leaves the previous snapshot in place.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	set, err := Load(s.path)
	if err != nil {
		return err
	}
	s.store(set)
	return nil
}

func (s *Source) store(set domain.RequiredFieldSet) {
	clone := set.Clone()
	s.current.Store(&clone)
}

func Load(path string) (domain.RequiredFieldSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read required fields file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (domain.RequiredFieldSet, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse required fields", err)
	}
	if len(doc.IncidentTypes) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse required fields", errors.New("incident_types is empty"))
	}

	set := make(domain.RequiredFieldSet, len(doc.IncidentTypes))
	for typeCode, names := range doc.IncidentTypes {
		typeCode = strings.TrimSpace(typeCode)
		if typeCode == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse required fields", errors.New("empty incident type code"))
		}
		seen := make(map[string]struct{}, len(names))
		clean := make([]string, 0, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if !namePattern.MatchString(name) {
				return nil, domain.WrapError(domain.ErrInvalidInput, "parse required fields",
					fmt.Errorf("type %s: invalid placeholder name %q", typeCode, name))
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			clean = append(clean, name)
		}
		set[typeCode] = clean
	}
	return set, nil
}
