package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kirillkom/incident-docs/internal/infrastructure/docx"
)

func placeholdersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "placeholders",
		Short: "Inspect template placeholders",
	}
	cmd.AddCommand(placeholdersCheckCmd(env))
	return cmd
}

// placeholdersCheckCmd validates a local DOCX before it is uploaded.
func placeholdersCheckCmd(env *Env) *cobra.Command {
	var typeCode string

	cmd := &cobra.Command{
		Use:   "check <file.docx>",
		Short: "List the placeholders of a template and check the required ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			found, err := env.Scanner.ExtractPlaceholders(raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Placeholders: %s\n", strings.Join(docx.SortedNames(found), ", "))

			if typeCode == "" {
				return nil
			}
			required, ok := env.Fields.RequiredFields().Lookup(typeCode)
			if !ok {
				return fmt.Errorf("no required fields configured for incident type %q", typeCode)
			}
			if err := env.Scanner.AssertRequired(raw, required); err != nil {
				fmt.Fprintf(out, "%s %s\n", color.New(color.FgRed).Sprint("FAIL"), err)
				return err
			}
			fmt.Fprintf(out, "%s all %d required placeholders for %s present\n",
				color.New(color.FgGreen).Sprint("OK"), len(required), typeCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeCode, "type", "", "incident type code whose required placeholders are checked")
	return cmd
}
