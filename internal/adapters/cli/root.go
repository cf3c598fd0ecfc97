package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

// Services are the use cases commands that touch the database need.
type Services struct {
	Generator ports.DocumentGenerator
	Templates ports.TemplateManager
}

// Env carries what every command needs. Open is called lazily so commands
// that work on local files never dial the database.
type Env struct {
	Open    func(ctx context.Context) (*Services, func(), error)
	Fields  ports.RequiredFieldSource
	Scanner ports.PlaceholderScanner

	FirmID        string
	MaxMessages   int
	OutputRoot    string
	DefaultPolicy string

	Out io.Writer
	Err io.Writer
}

// NewRootCmd builds the incidentdocs command tree.
func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "incidentdocs",
		Short:         "Generate incident documents from versioned DOCX templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env.FirmID, "firm", env.FirmID, "firm id every operation is scoped to (FIRM_ID)")
	if env.Out != nil {
		root.SetOut(env.Out)
	}
	if env.Err != nil {
		root.SetErr(env.Err)
	}

	root.AddCommand(generateCmd(env))
	root.AddCommand(templatesCmd(env))
	root.AddCommand(placeholdersCmd(env))
	return root
}

func (e *Env) scope() (domain.Scope, error) {
	scope := domain.Scope{FirmID: strings.TrimSpace(e.FirmID)}
	if err := scope.Validate(); err != nil {
		return domain.Scope{}, fmt.Errorf("invalid --firm or FIRM_ID: %w", err)
	}
	return scope, nil
}

func (e *Env) services(ctx context.Context) (*Services, func(), error) {
	if e.Open == nil {
		return nil, nil, fmt.Errorf("no backend configured")
	}
	return e.Open(ctx)
}
