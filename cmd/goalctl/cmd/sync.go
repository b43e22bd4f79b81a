package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalflow/internal/app"
	"github.com/templui/goalflow/internal/ctxkeys"
	"github.com/templui/goalflow/internal/service"
)

func SyncCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay posted journal entries into goals",
		Long: "Replays journal entries posted since the given date. Entries already\n" +
			"recorded against a goal are skipped, so overlapping runs are safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := sinceTime(since, time.Now())
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.GoalService.SyncLedger(cmd.Context(), ctxkeys.SystemActor, from)
				fmt.Fprintf(cmd.OutOrStdout(), "processed %d entries since %s\n", n, from.Format(time.RFC3339))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "24h", "date (2006-01-02), RFC 3339 time, or duration back from now")
	return cmd
}

// sinceTime accepts a duration such as 72h or an absolute date.
func sinceTime(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d).UTC(), nil
	}
	return service.ParseDate(value)
}
