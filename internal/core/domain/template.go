package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Scope carries the firm every core operation is confined to.
type Scope struct {
	FirmID string `json:"firm_id"`
}

func (s Scope) Validate() error {
	if trimmed(s.FirmID) == "" {
		return WrapError(ErrUnauthorized, "scope", errors.New("firm id is required"))
	}
	return ValidatePathSegment("firm id", s.FirmID)
}

// ValidatePathSegment rejects identifiers that cannot stand as one element
// of a storage or output path.
func ValidatePathSegment(field, value string) error {
	v := trimmed(value)
	switch {
	case v == "":
		return WrapError(ErrInvalidInput, "path segment", fmt.Errorf("%s is required", field))
	case v == "." || v == "..":
		return WrapError(ErrInvalidInput, "path segment", fmt.Errorf("%s %q is not allowed", field, value))
	case strings.ContainsAny(v, `/\`) || strings.IndexFunc(v, unicode.IsControl) >= 0:
		return WrapError(ErrInvalidInput, "path segment", fmt.Errorf("%s %q contains a path separator or control character", field, value))
	}
	return nil
}

// TemplateScope identifies one template lineage across versions.
type TemplateScope struct {
	CompanyClientID string `json:"company_client_id"`
	TemplateKey     string `json:"template_key"`
}

func (s TemplateScope) Validate() error {
	if err := ValidatePathSegment("company client id", s.CompanyClientID); err != nil {
		return err
	}
	return ValidatePathSegment("template key", s.TemplateKey)
}

type Template struct {
	ID                string    `json:"id"`
	FirmID            string    `json:"firm_id"`
	CompanyClientID   string    `json:"company_client_id"`
	CompanyClientName string    `json:"company_client_name,omitempty"`
	TemplateKey       string    `json:"template_key"`
	Version           int       `json:"version"`
	StoragePath       string    `json:"storage_path"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// ActiveTemplate is the resolved location of the active version of a scope.
type ActiveTemplate struct {
	StoragePath string `json:"storage_path"`
	Version     int    `json:"version"`
}

// TemplateStoragePath builds the version-qualified blob location.
func TemplateStoragePath(firmID string, scope TemplateScope, version int) string {
	return fmt.Sprintf("templates/%s/%s/%s/v%d.docx", firmID, scope.CompanyClientID, scope.TemplateKey, version)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
