package httpadapter

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func (rt *Router) uploadTemplate(w http.ResponseWriter, r *http.Request) {
	maxBytes := rt.cfg.APIMaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "template file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	tpl, err := rt.templates.UploadTemplate(r.Context(), scopeFromRequest(r), domain.TemplateScope{
		CompanyClientID: strings.TrimSpace(r.FormValue("company_client_id")),
		TemplateKey:     strings.TrimSpace(r.FormValue("template_key")),
	}, raw)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (rt *Router) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := rt.templates.ListTemplates(r.Context(), scopeFromRequest(r), r.URL.Query().Get("company_client_id"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (rt *Router) deactivateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := rt.templates.DeactivateTemplate(r.Context(), scopeFromRequest(r), r.PathValue("id")); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
