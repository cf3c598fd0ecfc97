package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrPreflightFailed):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrCommitFailed):
		return http.StatusInternalServerError
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound), domain.IsKind(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateRecord):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type generationErrorBody struct {
	Error    string                    `json:"error"`
	Messages []string                  `json:"messages,omitempty"`
	Failure  *domain.GenerationFailure `json:"failure,omitempty"`
	Summary  *domain.GenerationSummary `json:"summary,omitempty"`
}

// writeDomainError renders err with its mapped status. Preflight and
// commit failures carry their details so callers can act on them.
func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	body := generationErrorBody{Error: err.Error()}

	var pe *domain.PreflightError
	var ce *domain.CommitError
	switch {
	case errors.As(err, &pe):
		body.Messages = pe.Messages(rt.cfg.GenerationMaxMessages)
	case errors.As(err, &ce):
		body.Failure = &ce.Failure
		body.Summary = &ce.Summary
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}
