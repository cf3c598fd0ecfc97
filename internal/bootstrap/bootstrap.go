package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
	"github.com/kirillkom/incident-docs/internal/core/usecase"
	"github.com/kirillkom/incident-docs/internal/infrastructure/docx"
	"github.com/kirillkom/incident-docs/internal/infrastructure/queue/nats"
	"github.com/kirillkom/incident-docs/internal/infrastructure/report"
	"github.com/kirillkom/incident-docs/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/incident-docs/internal/infrastructure/requiredfields"
	"github.com/kirillkom/incident-docs/internal/infrastructure/resilience"
	"github.com/kirillkom/incident-docs/internal/infrastructure/storage"
	"github.com/kirillkom/incident-docs/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/incident-docs/internal/infrastructure/storage/localfs"
)

// Options tunes what New wires for a particular binary.
type Options struct {
	Logger   *slog.Logger
	Recorder ports.GenerationRecorder
	// SkipMessaging leaves the queue unset and change events unpublished.
	SkipMessaging bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     *nats.Queue
	Generator *usecase.GenerateDocumentsUseCase
	Templates *usecase.TemplateRegistry
	Fields    *requiredfields.Source
	Scanner   *docx.Scanner

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	policy, err := domain.ParseFailurePolicy(cfg.GenerationFailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("generation failure policy: %w", err)
	}

	fields, err := requiredfields.NewFileSource(cfg.RequiredFieldsFile)
	if err != nil {
		return nil, fmt.Errorf("load required fields: %w", err)
	}
	app.Fields = fields

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.FromConfig(cfg))

	blobs, err := app.openTemplateStorage(ctx, cfg, executor)
	if err != nil {
		app.Close()
		return nil, err
	}

	var broker ports.ChangeNotifier
	if !opts.SkipMessaging && strings.TrimSpace(cfg.NATSURL) != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Options{})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, conn.Close)
		app.Queue = nats.NewQueue(conn, cfg.NATSGenerationSubject, executor)
		broker = nats.NewChangeNotifier(conn, cfg.NATSChangesSubject, executor)
	}
	notifier := changeNotifier(logger, broker)

	scanner := docx.NewScanner()
	sink := localfs.NewOutputDir()
	app.Scanner = scanner

	app.Templates = usecase.NewTemplateRegistry(
		postgres.NewTemplateRepository(db),
		blobs,
		scanner,
		notifier,
	)

	ledger := postgres.NewGeneratedDocumentRepository(db)
	deps := usecase.GenerateDocumentsDeps{
		Incidents:     postgres.NewIncidentRepository(db),
		Registry:      app.Templates,
		Dedup:         usecase.NewDedupGuard(ledger),
		Scanner:       scanner,
		Renderer:      docx.NewRenderer(),
		Sink:          sink,
		Ledger:        ledger,
		Fields:        fields,
		Notifier:      notifier,
		Recorder:      opts.Recorder,
		Logger:        logger,
		DefaultPolicy: policy,
	}
	if cfg.GenerationRunReport {
		deps.Reporter = report.NewXLSXReporter(sink)
	}
	app.Generator = usecase.NewGenerateDocumentsUseCase(deps)

	if cfg.RequiredFieldsWatch && fields.Path() != "" {
		watchCtx, cancel := context.WithCancel(context.Background())
		app.closers = append(app.closers, cancel)
		if err := fields.Watch(watchCtx, logger); err != nil {
			logger.Warn("required_fields_watch_disabled", "path", fields.Path(), "error", err)
		}
	}

	logger.Info("bootstrap_ready",
		"template_storage", cfg.TemplateStorage,
		"messaging", app.Queue != nil,
		"failure_policy", string(policy),
		"required_field_types", len(fields.RequiredFields()),
	)
	return app, nil
}

func (a *App) openTemplateStorage(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TemplateStorage)) {
	case "", "localfs":
		fs, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return fs, nil
	case "gcs":
		store, err := gcs.New(ctx, gcs.Options{
			Bucket:          cfg.GCSTemplatesBucket,
			Prefix:          cfg.GCSPrefix,
			CredentialsFile: cfg.GCSCredentialsFile,
			Endpoint:        cfg.GCSEndpoint,
			Timeout:         cfg.GCSOperationTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return storage.NewGuarded(store, executor, "gcs"), nil
	default:
		return nil, fmt.Errorf("unknown template storage %q", cfg.TemplateStorage)
	}
}

// changeNotifier always logs change events and also publishes them when a
// broker is connected.
func changeNotifier(logger *slog.Logger, broker ports.ChangeNotifier) ports.ChangeNotifier {
	observers := usecase.MultiNotifier{usecase.LogNotifier{Logger: logger}}
	if broker != nil {
		observers = append(observers, broker)
	}
	return observers
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
