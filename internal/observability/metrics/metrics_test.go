package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func TestGenerationMetricsCountsRunsAndDocuments(t *testing.T) {
	m := NewWorkerMetrics("incident-docs-worker")
	gen := m.Generation()

	gen.ObserveRun("completed", 2*time.Second, domain.GenerationSummary{Generated: 3, Recorded: 2, Raced: 1})
	gen.ObserveRejections(4)

	if got := testutil.ToFloat64(gen.runsTotal.WithLabelValues("incident-docs-worker", "completed")); got != 1 {
		t.Fatalf("expected one completed run, got %v", got)
	}
	if got := testutil.ToFloat64(gen.documentsTotal.WithLabelValues("incident-docs-worker", "generated")); got != 3 {
		t.Fatalf("expected 3 generated, got %v", got)
	}
	if got := testutil.ToFloat64(gen.rejectionsTotal.WithLabelValues("incident-docs-worker")); got != 4 {
		t.Fatalf("expected 4 rejections, got %v", got)
	}
}

func TestHTTPMetricsNormalizesTemplatePath(t *testing.T) {
	m := NewHTTPServerMetrics("incident-docs-api")
	handler := m.Middleware("incident-docs-api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/templates/abc-123/deactivate", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `path="/v1/templates/{template_id}/deactivate"`) {
		t.Fatalf("expected normalized path label in exposition:\n%s", body)
	}
}
