package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
	"github.com/kirillkom/incident-docs/internal/observability/metrics"
)

const firmIDHeader = "X-Firm-Id"

type Router struct {
	cfg       config.Config
	generator ports.DocumentGenerator
	templates ports.TemplateManager
	queue     ports.GenerationQueue
	metrics   *metrics.HTTPServerMetrics
}

// NewRouter builds the API. queue may be nil, in which case async
// generation answers 503.
func NewRouter(
	cfg config.Config,
	generator ports.DocumentGenerator,
	templates ports.TemplateManager,
	queue ports.GenerationQueue,
) *Router {
	return &Router{
		cfg:       cfg,
		generator: generator,
		templates: templates,
		queue:     queue,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/generations", rt.generate)
	api.HandleFunc("POST /v1/generations/async", rt.generateAsync)
	api.HandleFunc("POST /v1/templates", rt.uploadTemplate)
	api.HandleFunc("GET /v1/templates", rt.listTemplates)
	api.HandleFunc("POST /v1/templates/{id}/deactivate", rt.deactivateTemplate)

	var guarded http.Handler = api
	guarded = backpressureMiddleware(guarded, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIQueueWaitMS)*time.Millisecond)
	guarded = newRateLimiter(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onRateLimited).middleware(guarded)
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("incident-docs-api", handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) onRateLimited(r *http.Request) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited("incident-docs-api", r.URL.Path)
	}
}

func scopeFromRequest(r *http.Request) domain.Scope {
	return domain.Scope{FirmID: strings.TrimSpace(r.Header.Get(firmIDHeader))}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
