package cmd

import (
	"github.com/spf13/cobra"
	"github.com/templui/goalflow/internal/app"
	"github.com/templui/goalflow/internal/service"
)

func ReconcileCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile <goal-id>",
		Short: "Recompute a goal's milestones from its current amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				var (
					report *service.ReconcileReport
					err    error
				)
				if dryRun {
					report, err = a.GoalService.PreviewReconcile(cmd.Context(), args[0])
				} else {
					// Empty tenant: operators act across tenants.
					report, err = a.GoalService.ReconcileMilestones(cmd.Context(), "", args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the changes without writing them")
	return cmd
}
