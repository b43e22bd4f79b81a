package cmd

import (
	"github.com/spf13/cobra"
	"github.com/templui/goalflow/internal/app"
)

func AuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check every active goal for milestone drift and upload the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.AuditService.Run(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}
