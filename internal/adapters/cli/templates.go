package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

func templatesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage versioned incident templates",
	}
	cmd.AddCommand(templateUploadCmd(env))
	cmd.AddCommand(templateListCmd(env))
	cmd.AddCommand(templateDeactivateCmd(env))
	return cmd
}

func templateUploadCmd(env *Env) *cobra.Command {
	var clientID, key string

	cmd := &cobra.Command{
		Use:   "upload <file.docx>",
		Short: "Upload a template as the next active version of its scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := env.scope()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}

			svc, release, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			tpl, err := svc.Templates.UploadTemplate(cmd.Context(), scope, domain.TemplateScope{
				CompanyClientID: clientID,
				TemplateKey:     key,
			}, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s v%d for client %s (%s)\n",
				color.New(color.FgGreen).Sprint("Activated"), tpl.TemplateKey, tpl.Version, tpl.CompanyClientID, tpl.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "company client id")
	cmd.Flags().StringVar(&key, "key", "", "template key, usually the incident type code")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func templateListCmd(env *Env) *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List template versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := env.scope()
			if err != nil {
				return err
			}
			svc, release, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			templates, err := svc.Templates.ListTemplates(cmd.Context(), scope, clientID)
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tKEY\tVERSION\tSTATUS\tCREATED")
			for _, tpl := range templates {
				status := color.New(color.Faint).Sprint("inactive")
				if tpl.IsActive {
					status = color.New(color.FgGreen).Sprint("active")
				}
				client := tpl.CompanyClientName
				if client == "" {
					client = tpl.CompanyClientID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\tv%d\t%s\t%s\n",
					tpl.ID, client, tpl.TemplateKey, tpl.Version, status, tpl.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "only templates of this company client")
	return cmd
}

func templateDeactivateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <template-id>",
		Short: "Deactivate a template version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := env.scope()
			if err != nil {
				return err
			}
			svc, release, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.Templates.DeactivateTemplate(cmd.Context(), scope, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s\n", args[0])
			return nil
		},
	}
}
