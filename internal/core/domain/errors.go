package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrTemplateNotFound = errors.New("active template not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDuplicateRecord  = errors.New("duplicate record")
	ErrTemporary        = errors.New("temporary failure")
	ErrPreflightFailed  = errors.New("generation preflight failed")
	ErrCommitFailed     = errors.New("generation commit failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// MissingPlaceholdersError names every required placeholder absent from a template.
type MissingPlaceholdersError struct {
	Missing []string
}

func (e *MissingPlaceholdersError) Error() string {
	return "missing placeholders: " + strings.Join(e.Missing, ", ")
}

func (e *MissingPlaceholdersError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MoreMarker terminates a capped message list.
const MoreMarker = "... (more)"

// Rejection is one preflight failure attributed to a single incident.
type Rejection struct {
	IncidentID   string `json:"incident_id"`
	IncidentCode string `json:"incident_code,omitempty"`
	Reason       string `json:"reason"`
}

func (r Rejection) Message() string {
	if r.IncidentCode == "" {
		return fmt.Sprintf("Incident %s %s", r.IncidentID, r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.IncidentCode, r.Reason)
}

// PreflightError aborts a batch before any side effect. Rejections keep
// the incident query order.
type PreflightError struct {
	Rejections []Rejection
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("generation stopped: %d incident(s) failed preflight", len(e.Rejections))
}

func (e *PreflightError) Is(target error) bool {
	return target == ErrPreflightFailed
}

// Messages returns at most limit human-readable messages followed by
// MoreMarker when the list was truncated. limit <= 0 returns everything.
func (e *PreflightError) Messages(limit int) []string {
	return CapMessages(rejectionMessages(e.Rejections), limit)
}

func rejectionMessages(rejections []Rejection) []string {
	out := make([]string, 0, len(rejections))
	for _, r := range rejections {
		out = append(out, r.Message())
	}
	return out
}

func CapMessages(messages []string, limit int) []string {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	out := make([]string, 0, limit+1)
	out = append(out, messages[:limit]...)
	return append(out, MoreMarker)
}

// CommitError reports a fail-fast stop during the side-effecting phase.
// Summary holds what was produced before the failure.
type CommitError struct {
	Failure GenerationFailure
	Summary GenerationSummary
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("generation failed at %s after %d document(s): %v",
		e.Failure.IncidentCode, e.Summary.Generated, e.Err)
}

func (e *CommitError) Is(target error) bool {
	return target == ErrCommitFailed
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
