package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type generationRequestBody struct {
	DateFrom        string `json:"date_from"`
	DateTo          string `json:"date_to"`
	CompanyClientID string `json:"company_client_id"`
	OutputSubdir    string `json:"output_subdir"`
	FailurePolicy   string `json:"failure_policy"`
}

func (rt *Router) generate(w http.ResponseWriter, r *http.Request) {
	req, err := rt.decodeGenerationRequest(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	outcome, err := rt.generator.Generate(r.Context(), req)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) generateAsync(w http.ResponseWriter, r *http.Request) {
	if rt.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "async generation is not configured")
		return
	}
	req, err := rt.decodeGenerationRequest(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if err := rt.queue.PublishGenerationRequested(r.Context(), req); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "queued",
		"output_dir": req.OutputDir,
	})
}

func (rt *Router) decodeGenerationRequest(r *http.Request) (domain.GenerationRequest, error) {
	var body generationRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.GenerationRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode generation request", errors.New("invalid json"))
	}

	scope := scopeFromRequest(r)
	if err := scope.Validate(); err != nil {
		return domain.GenerationRequest{}, err
	}
	from, err := parseDay("date_from", body.DateFrom)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	to, err := parseDay("date_to", body.DateTo)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	var policy domain.FailurePolicy
	if strings.TrimSpace(body.FailurePolicy) != "" {
		if policy, err = domain.ParseFailurePolicy(body.FailurePolicy); err != nil {
			return domain.GenerationRequest{}, err
		}
	}
	outputDir, err := rt.outputDir(scope, body.OutputSubdir)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	return domain.GenerationRequest{
		Scope:           scope,
		DateFrom:        from,
		DateTo:          to,
		CompanyClientID: strings.TrimSpace(body.CompanyClientID),
		OutputDir:       outputDir,
		FailurePolicy:   policy,
	}, nil
}

// outputDir confines API callers to a per-firm directory under the
// configured output root.
func (rt *Router) outputDir(scope domain.Scope, subdir string) (string, error) {
	base := filepath.Join(rt.cfg.GenerationOutputDir, scope.FirmID)
	subdir = strings.TrimSpace(subdir)
	if subdir == "" {
		return base, nil
	}
	clean := filepath.Clean(filepath.FromSlash(subdir))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "output directory", fmt.Errorf("subdir %q escapes the output root", subdir))
	}
	return filepath.Join(base, clean), nil
}

func parseDay(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse date", fmt.Errorf("%s is required", field))
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse date", fmt.Errorf("%s must be YYYY-MM-DD", field))
	}
	return t, nil
}
