package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func generateCmd(env *Env) *cobra.Command {
	var (
		from, to  string
		clientID  string
		outputDir string
		policy    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate documents for incidents in a date range",
		Long: `Generate one document per incident in the inclusive date range.

Every incident is checked first. If any incident lacks an active template
or its template misses required placeholders, nothing is written and the
reasons are listed. Incidents already generated with the active template
version are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := env.scope()
			if err != nil {
				return err
			}
			req, err := buildGenerationRequest(scope, from, to, clientID, outputDir, policy, env)
			if err != nil {
				return err
			}

			svc, release, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			outcome, err := svc.Generator.Generate(cmd.Context(), req)
			if err != nil {
				printGenerationError(cmd.ErrOrStderr(), err, env.MaxMessages)
				return err
			}
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first incident date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last incident date, YYYY-MM-DD")
	cmd.Flags().StringVar(&clientID, "client", "", "restrict to one company client id")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory (defaults to GENERATION_OUTPUT_DIR)")
	cmd.Flags().StringVar(&policy, "policy", "", "fail_fast or continue (defaults to GENERATION_FAILURE_POLICY)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func buildGenerationRequest(scope domain.Scope, from, to, clientID, outputDir, policy string, env *Env) (domain.GenerationRequest, error) {
	dateFrom, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return domain.GenerationRequest{}, fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
	}
	dateTo, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return domain.GenerationRequest{}, fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
	}
	if outputDir == "" {
		outputDir = env.OutputRoot
	}
	if policy == "" {
		policy = env.DefaultPolicy
	}
	parsed, err := domain.ParseFailurePolicy(policy)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	return domain.GenerationRequest{
		Scope:           scope,
		DateFrom:        dateFrom,
		DateTo:          dateTo,
		CompanyClientID: clientID,
		OutputDir:       outputDir,
		FailurePolicy:   parsed,
	}, nil
}

func printOutcome(w io.Writer, outcome *domain.GenerationOutcome) {
	s := outcome.Summary
	switch outcome.Status {
	case domain.OutcomeNoIncidents:
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("No incidents in range."))
		return
	case domain.OutcomeNothingToDo:
		fmt.Fprintf(w, "%s %d incident(s) already generated with the active template version.\n",
			color.New(color.FgBlue).Sprint("Nothing to do:"), s.Skipped)
		return
	}

	status := color.New(color.FgGreen).Sprint(string(outcome.Status))
	if outcome.Status == domain.OutcomePartial {
		status = color.New(color.FgYellow).Sprint(string(outcome.Status))
	}
	fmt.Fprintf(w, "Run %s: %s\n", outcome.RunID, status)
	fmt.Fprintf(w, "  generated %d, recorded %d, skipped %d, raced %d, failed %d\n",
		s.Generated, s.Recorded, s.Skipped, s.Raced, s.Failed)
	for _, doc := range s.Documents {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgGreen).Sprint("+"), doc.OutputPath)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s %s (%s): %s\n", color.New(color.FgRed).Sprint("x"), f.IncidentCode, f.Stage, f.Reason)
	}
	if outcome.ReportPath != "" {
		fmt.Fprintf(w, "  report: %s\n", outcome.ReportPath)
	}
}

func printGenerationError(w io.Writer, err error, maxMessages int) {
	red := color.New(color.FgRed)
	var pe *domain.PreflightError
	var ce *domain.CommitError
	switch {
	case errors.As(err, &pe):
		red.Fprintln(w, "Generation stopped. No documents were written:")
		for _, msg := range pe.Messages(maxMessages) {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	case errors.As(err, &ce):
		red.Fprintf(w, "Generation aborted at %s (%s): %s\n", ce.Failure.IncidentCode, ce.Failure.Stage, ce.Failure.Reason)
		fmt.Fprintf(w, "  %d document(s) written before the failure.\n", ce.Summary.Generated)
	}
}
