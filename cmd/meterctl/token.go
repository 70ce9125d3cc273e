package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/middleware"
)

func newTokenCmd(cfg *viper.Viper) *cobra.Command {
	var id domain.Identity
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := cfg.GetString(keySessionSecret)
			if secret == "" {
				return errors.New("SESSION_SECRET is required")
			}
			token, err := middleware.SignSession(secret, cfg.GetString(keySessionIssuer), id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&id.ID, "user", "", "User ID (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "Email claim")
	cmd.Flags().StringVar(&id.DisplayName, "name", "", "Display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().String("secret", "", "Signing secret (default: $SESSION_SECRET)")
	_ = cfg.BindPFlag(keySessionSecret, cmd.Flags().Lookup("secret"))
	return cmd
}
