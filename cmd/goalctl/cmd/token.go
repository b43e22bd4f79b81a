package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalflow/internal/service"
)

func TokenCmd() *cobra.Command {
	var (
		actor  string
		tenant string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for an actor in a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush := loadConfig()
			defer flush()

			if expiry <= 0 {
				expiry = cfg.JWTExpiry
			}

			token, err := service.NewAuthService(cfg.JWTSecret, expiry).GenerateJWT(service.Identity{
				ActorID:  actor,
				TenantID: tenant,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor id (required)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime, defaults to JWT_EXPIRY")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
