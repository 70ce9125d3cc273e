package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/infra"
	"github.com/yang-smith/worker/internal/ledger"
)

func newStatsCmd(cfg *viper.Viper) *cobra.Command {
	var userID string
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's balance and recent charges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url := cfg.GetString(keyDatabaseURL)
			if url == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			logger := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel)
			l := ledger.New(infra.NewSQLRunner(pool, logger), logger)

			status, err := l.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			records, err := l.ListUsage(ctx, userID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:        %s\n", status.UserID)
			fmt.Fprintf(out, "plan:        %s (%s)\n", status.Plan, status.Status)
			fmt.Fprintf(out, "balance:     %s\n", status.Balance.String())
			fmt.Fprintf(out, "total spent: %s\n", status.TotalSpent.String())
			if status.ExpiresAt != nil {
				fmt.Fprintf(out, "expires at:  %s\n", status.ExpiresAt.Format(time.RFC3339))
			}
			for _, r := range records {
				fmt.Fprintf(out, "  %s  %-28s %s\n", r.CreatedAt.Format(time.RFC3339), r.Model, r.Cost.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().IntVar(&limit, "limit", ledger.DefaultUsageLimit, "Number of recent charges to show")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().String("database-url", "", "Postgres URL (default: $DATABASE_URL)")
	_ = cfg.BindPFlag(keyDatabaseURL, cmd.Flags().Lookup("database-url"))
	return cmd
}
