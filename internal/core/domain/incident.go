package domain

import "time"

type Worker struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
}

type CompanyClient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Incident is the read model loaded once per generation run.
type Incident struct {
	ID               string        `json:"id"`
	Code             string        `json:"code"`
	IncidentTypeCode string        `json:"incident_type_code"`
	IncidentTypeName string        `json:"incident_type_name,omitempty"`
	IncidentDate     time.Time     `json:"incident_date"`
	ReceivedDay      *time.Time    `json:"received_day,omitempty"`
	Observations     string        `json:"observations,omitempty"`
	Worker           Worker        `json:"worker"`
	CompanyClient    CompanyClient `json:"company_client"`
}

// TemplateKey is the template lineage an incident selects.
func (i Incident) TemplateKey() string {
	return trimmed(i.IncidentTypeCode)
}

// IncidentFilter selects candidate incidents by incident date (inclusive).
type IncidentFilter struct {
	DateFrom        time.Time
	DateTo          time.Time
	CompanyClientID string
}

// DocContext is assembled per incident at render time and never persisted.
type DocContext struct {
	Today           time.Time
	Code            string
	WorkerNameUpper string
	IncidentDate    time.Time
	Observations    string
}
