package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

// GenerateDocumentsDeps wires the collaborators of a generation run.
type GenerateDocumentsDeps struct {
	Incidents ports.IncidentQuery
	Registry  *TemplateRegistry
	Dedup     *DedupGuard
	Scanner   ports.PlaceholderScanner
	Renderer  ports.DocumentRenderer
	Sink      ports.OutputSink
	Ledger    ports.GeneratedDocumentLedger
	Fields    ports.RequiredFieldSource

	Notifier ports.ChangeNotifier
	Recorder ports.GenerationRecorder
	Reporter ports.RunReporter
	Logger   *slog.Logger
	Clock    ports.Clock

	DefaultPolicy domain.FailurePolicy
}

// GenerateDocumentsUseCase runs a batch in two phases: a side-effect free
// preflight over every candidate, then the commit of the surviving ones.
type GenerateDocumentsUseCase struct {
	deps GenerateDocumentsDeps
}

func NewGenerateDocumentsUseCase(deps GenerateDocumentsDeps) *GenerateDocumentsUseCase {
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.DefaultPolicy == "" {
		deps.DefaultPolicy = domain.FailurePolicyFailFast
	}
	return &GenerateDocumentsUseCase{deps: deps}
}

func (uc *GenerateDocumentsUseCase) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	policy := req.FailurePolicy
	if policy == "" {
		policy = uc.deps.DefaultPolicy
	}

	startedAt := uc.deps.Clock()
	outcome := &domain.GenerationOutcome{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
	}
	log := uc.deps.Logger.With("run_id", outcome.RunID, "firm_id", req.Scope.FirmID)

	incidents, err := uc.deps.Incidents.ListIncidentsForGeneration(ctx, req.Scope, req.Filter())
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}
	if len(incidents) == 0 {
		log.Info("generation_no_incidents")
		return uc.finish(outcome, domain.OutcomeNoIncidents), nil
	}

	plan, err := uc.preflight(ctx, req.Scope, incidents)
	if err != nil {
		uc.observeAbort(log, startedAt, err)
		return nil, err
	}
	outcome.Summary.Skipped = len(plan.skipped)
	outcome.Summary.SkippedIncidents = plan.skipped
	outcome.Summary.Requested = len(plan.pending)
	log.Info("generation_preflight_done",
		"candidates", len(incidents),
		"pending", len(plan.pending),
		"skipped", len(plan.skipped),
	)

	if len(plan.pending) == 0 {
		uc.observe(outcome.Summary, domain.OutcomeNothingToDo, startedAt)
		return uc.finish(outcome, domain.OutcomeNothingToDo), nil
	}

	commitErr := uc.commit(ctx, req, plan, policy, &outcome.Summary)
	outcome.Changed = outcome.Summary.Generated > 0

	status := domain.OutcomeCompleted
	if outcome.Summary.Failed > 0 {
		status = domain.OutcomePartial
	}
	uc.finish(outcome, status)
	uc.afterCommit(ctx, log, req, outcome)

	if commitErr != nil {
		uc.observe(outcome.Summary, "failed", startedAt)
		log.Error("generation_aborted",
			"generated", outcome.Summary.Generated,
			"recorded", outcome.Summary.Recorded,
			"error", commitErr,
		)
		return nil, commitErr
	}

	uc.observe(outcome.Summary, status, startedAt)
	log.Info("generation_commit_done",
		"generated", outcome.Summary.Generated,
		"recorded", outcome.Summary.Recorded,
		"skipped", outcome.Summary.Skipped,
		"raced", outcome.Summary.Raced,
		"failed", outcome.Summary.Failed,
		"duration_ms", float64(time.Since(startedAt).Microseconds())/1000.0,
	)
	return outcome, nil
}

// afterCommit publishes what the commit changed. Neither step can undo a
// written document, so failures here are logged only.
func (uc *GenerateDocumentsUseCase) afterCommit(ctx context.Context, log *slog.Logger, req domain.GenerationRequest, outcome *domain.GenerationOutcome) {
	if uc.deps.Reporter != nil && (outcome.Summary.Generated > 0 || outcome.Summary.Failed > 0) {
		path, err := uc.deps.Reporter.WriteRunReport(ctx, req.OutputDir, *outcome)
		if err != nil {
			log.Warn("generation_report_failed", "error", err)
		} else {
			outcome.ReportPath = path
		}
	}
	if !outcome.Changed {
		return
	}
	if err := uc.deps.Notifier.DocumentsGenerated(ctx, req.Scope, *outcome); err != nil {
		log.Warn("documents_generated_notify_failed", "error", err)
	}
}

func (uc *GenerateDocumentsUseCase) finish(outcome *domain.GenerationOutcome, status domain.OutcomeStatus) *domain.GenerationOutcome {
	outcome.Status = status
	outcome.FinishedAt = uc.deps.Clock()
	return outcome
}

func (uc *GenerateDocumentsUseCase) observeAbort(log *slog.Logger, startedAt time.Time, err error) {
	rejections := 0
	var pe *domain.PreflightError
	if errors.As(err, &pe) {
		rejections = len(pe.Rejections)
	}
	if uc.deps.Recorder != nil {
		uc.deps.Recorder.ObserveRejections(rejections)
		uc.deps.Recorder.ObserveRun("rejected", time.Since(startedAt), domain.GenerationSummary{})
	}
	log.Warn("generation_preflight_rejected", "rejections", rejections, "error", err)
}

func (uc *GenerateDocumentsUseCase) observe(summary domain.GenerationSummary, status domain.OutcomeStatus, startedAt time.Time) {
	if uc.deps.Recorder == nil {
		return
	}
	uc.deps.Recorder.ObserveRun(string(status), time.Since(startedAt), summary)
}
