package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/incident-docs/internal/adapters/cli"
	"github.com/kirillkom/incident-docs/internal/bootstrap"
	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/infrastructure/docx"
	"github.com/kirillkom/incident-docs/internal/infrastructure/requiredfields"
	"github.com/kirillkom/incident-docs/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout belongs to command output; logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "incident-docs-cli", cfg.LogLevel)

	fields, err := requiredfields.NewFileSource(cfg.RequiredFieldsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	env := &cli.Env{
		Open: func(ctx context.Context) (*cli.Services, func(), error) {
			app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
			if err != nil {
				return nil, nil, err
			}
			return &cli.Services{Generator: app.Generator, Templates: app.Templates}, app.Close, nil
		},
		Fields:        fields,
		Scanner:       docx.NewScanner(),
		FirmID:        cfg.FirmID,
		MaxMessages:   cfg.GenerationMaxMessages,
		OutputRoot:    cfg.GenerationOutputDir,
		DefaultPolicy: cfg.GenerationFailurePolicy,
		Out:           os.Stdout,
		Err:           os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.NewRootCmd(env).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
