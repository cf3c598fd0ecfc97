package domain

import "time"

// GeneratedDocumentRecord is the ledger entry proving an incident was
// rendered with one exact template version.
type GeneratedDocumentRecord struct {
	ID              string    `json:"id"`
	FirmID          string    `json:"firm_id"`
	CompanyClientID string    `json:"company_client_id"`
	IncidentID      string    `json:"incident_id"`
	TemplateKey     string    `json:"template_key"`
	TemplateVersion int       `json:"template_version"`
	OutputPath      string    `json:"output_path"`
	CreatedAt       time.Time `json:"created_at"`
}
