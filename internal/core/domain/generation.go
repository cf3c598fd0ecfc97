package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FailurePolicy decides what happens to the rest of a batch when one
// incident fails after preflight has passed.
type FailurePolicy string

const (
	FailurePolicyFailFast FailurePolicy = "fail_fast"
	FailurePolicyContinue FailurePolicy = "continue"
)

func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FailurePolicyFailFast:
		return FailurePolicyFailFast, nil
	case FailurePolicyContinue:
		return FailurePolicyContinue, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse failure policy", fmt.Errorf("unknown policy %q", raw))
	}
}

type GenerationRequest struct {
	Scope           Scope         `json:"scope"`
	DateFrom        time.Time     `json:"date_from"`
	DateTo          time.Time     `json:"date_to"`
	CompanyClientID string        `json:"company_client_id,omitempty"`
	OutputDir       string        `json:"output_dir"`
	FailurePolicy   FailurePolicy `json:"failure_policy,omitempty"`
	// RequestedAt is stamped when a request is queued.
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

func (r GenerationRequest) Validate() error {
	if err := r.Scope.Validate(); err != nil {
		return err
	}
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return WrapError(ErrInvalidInput, "generation request", errors.New("date range is required"))
	}
	if r.DateFrom.After(r.DateTo) {
		return WrapError(ErrInvalidInput, "generation request", errors.New("from date cannot be after to date"))
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return WrapError(ErrInvalidInput, "generation request", errors.New("output directory is required"))
	}
	return nil
}

func (r GenerationRequest) Filter() IncidentFilter {
	return IncidentFilter{
		DateFrom:        r.DateFrom,
		DateTo:          r.DateTo,
		CompanyClientID: strings.TrimSpace(r.CompanyClientID),
	}
}

type OutcomeStatus string

const (
	OutcomeCompleted   OutcomeStatus = "completed"
	OutcomePartial     OutcomeStatus = "partial"
	OutcomeNothingToDo OutcomeStatus = "nothing_to_do"
	OutcomeNoIncidents OutcomeStatus = "no_incidents"
)

type GeneratedDocument struct {
	IncidentID      string `json:"incident_id"`
	IncidentCode    string `json:"incident_code"`
	TemplateKey     string `json:"template_key"`
	TemplateVersion int    `json:"template_version"`
	OutputPath      string `json:"output_path"`
	Recorded        bool   `json:"recorded"`
}

type FailureStage string

const (
	StageRender FailureStage = "render"
	StageWrite  FailureStage = "write"
	StageRecord FailureStage = "record"
)

type GenerationFailure struct {
	IncidentID   string       `json:"incident_id"`
	IncidentCode string       `json:"incident_code"`
	Stage        FailureStage `json:"stage"`
	Reason       string       `json:"reason"`
}

type SkippedIncident struct {
	IncidentID      string `json:"incident_id"`
	IncidentCode    string `json:"incident_code"`
	TemplateKey     string `json:"template_key"`
	TemplateVersion int    `json:"template_version"`
}

// GenerationSummary separates what was requested from what was produced.
type GenerationSummary struct {
	Requested int `json:"requested"`
	Generated int `json:"generated"`
	Recorded  int `json:"recorded"`
	Skipped   int `json:"skipped"`
	Raced     int `json:"raced"`
	Failed    int `json:"failed"`

	Documents        []GeneratedDocument `json:"documents,omitempty"`
	SkippedIncidents []SkippedIncident   `json:"skipped_incidents,omitempty"`
	Failures         []GenerationFailure `json:"failures,omitempty"`
}

func (s GenerationSummary) SkippedCodes() []string {
	out := make([]string, 0, len(s.SkippedIncidents))
	for _, sk := range s.SkippedIncidents {
		out = append(out, sk.IncidentCode)
	}
	return out
}

type GenerationOutcome struct {
	RunID      string            `json:"run_id"`
	Status     OutcomeStatus     `json:"status"`
	Summary    GenerationSummary `json:"summary"`
	Changed    bool              `json:"changed"`
	ReportPath string            `json:"report_path,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
