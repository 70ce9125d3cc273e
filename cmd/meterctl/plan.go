package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/infra"
	"github.com/yang-smith/worker/internal/ledger"
)

func newPlanCmd(cfg *viper.Viper) *cobra.Command {
	var (
		userID  string
		plan    string
		status  string
		expires string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Change a user's subscription plan, status or expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			change := ledger.PlanChange{
				Plan:   domain.AccountPlan(strings.ToLower(strings.TrimSpace(plan))),
				Status: domain.AccountState(strings.ToLower(strings.TrimSpace(status))),
			}
			if !change.Plan.Valid() {
				return fmt.Errorf("unsupported plan %q (free, monthly, yearly)", plan)
			}
			if !change.Status.Valid() {
				return fmt.Errorf("unsupported status %q (active, expired, cancelled)", status)
			}
			at, err := parseExpiry(expires, time.Now())
			if err != nil {
				return err
			}
			change.ExpiresAt = at

			url := cfg.GetString(keyDatabaseURL)
			if url == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			logger := zerolog.New(cmd.ErrOrStderr()).With().Str("cmd", "plan").Logger().Level(zerolog.WarnLevel)
			l := ledger.New(infra.NewSQLRunner(pool, logger), logger)

			// Lazy creation keeps the command usable before the user's first request.
			if _, err := l.GetOrCreate(ctx, userID); err != nil {
				return err
			}
			updated, err := l.SetPlan(ctx, userID, change)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "updated %s: plan=%s status=%s", updated.UserID, updated.Plan, updated.Status)
			if updated.ExpiresAt != nil {
				fmt.Fprintf(out, " expires=%s", updated.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&plan, "plan", string(domain.AccountPlanMonthly), "Plan to assign (free, monthly, yearly)")
	cmd.Flags().StringVar(&status, "status", string(domain.AccountStateActive), "Subscription status (active, expired, cancelled)")
	cmd.Flags().StringVar(&expires, "expires", "", "Expiry as RFC3339 or a duration from now such as 720h (empty clears it)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().String("database-url", "", "Postgres URL (default: $DATABASE_URL)")
	_ = cfg.BindPFlag(keyDatabaseURL, cmd.Flags().Lookup("database-url"))
	return cmd
}

// parseExpiry accepts an RFC3339 instant or a positive duration relative to now.
func parseExpiry(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("invalid --expires %q: want RFC3339 or a positive duration", raw)
	}
	t := now.Add(d).UTC()
	return &t, nil
}
