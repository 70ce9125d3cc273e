// Package ledger keeps per-user prepaid balances in Postgres.
//
// Debit is the only mutation of an existing account. It runs as a single
// conditional statement that also appends the usage record, so concurrent
// debits never drive a balance below zero and never leave a charge without
// its record.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/infra"
	"github.com/yang-smith/worker/internal/sqlinline"
)

const (
	DefaultUsageLimit = 20
	MaxUsageLimit     = 100
)

// Ledger implements domain.AccountLedger on top of an infra.SQLExecutor.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	newID  func() uuid.UUID
}

func New(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger, newID: uuid.New}
}

// GetOrCreate returns the caller's account, creating the default free
// account on first access. Concurrent first accesses converge on one row.
func (l *Ledger) GetOrCreate(ctx context.Context, userID string) (domain.AccountStatus, error) {
	if userID == "" {
		return domain.AccountStatus{}, fmt.Errorf("ledger: %w: empty user id", domain.ErrUnauthorized)
	}
	row := l.sql.QueryRow(ctx, sqlinline.QUpsertAccount, userID, domain.DefaultStartingBalance.String())
	status, err := scanAccount(row)
	if err == nil {
		return status, nil
	}
	if !infra.IsNoRows(err) && !infra.IsUniqueViolation(err) {
		return domain.AccountStatus{}, fmt.Errorf("ledger: upsert account: %w", err)
	}
	// Another request created the row after our snapshot was taken.
	status, err = scanAccount(l.sql.QueryRow(ctx, sqlinline.QSelectAccount, userID))
	if err != nil {
		return domain.AccountStatus{}, fmt.Errorf("ledger: reread account: %w", err)
	}
	return status, nil
}

// Debit charges amount to userID and records one usage row for model. It
// reports false when the balance no longer covers amount. Storage errors
// are returned and must be treated as a failed debit.
func (l *Ledger) Debit(ctx context.Context, userID, model string, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, fmt.Errorf("ledger: negative debit %s", amount)
	}
	usageID := l.newID()
	var balance decimal.Decimal
	var recorded string
	err := l.sql.QueryRow(ctx, sqlinline.QDebitAccount, userID, amount.String(), usageID.String(), model).Scan(&balance, &recorded)
	if err != nil {
		if infra.IsNoRows(err) {
			l.logger.Warn().Str("user_id", userID).Str("amount", amount.String()).Msg("debit rejected: balance below amount")
			return false, nil
		}
		return false, fmt.Errorf("ledger: debit: %w", err)
	}
	l.logger.Info().
		Str("user_id", userID).
		Str("model", model).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Str("usage_id", recorded).
		Msg("debit recorded")
	return true, nil
}

// Stats returns the caller's account for display. It never fails: when
// storage is unavailable the default free account view is returned, because
// the statistics surface favours availability over accuracy.
func (l *Ledger) Stats(ctx context.Context, userID string) domain.AccountStatus {
	status, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Msg("stats fell back to defaults")
		return domain.DefaultAccountStatus(userID)
	}
	return status
}

// ListUsage returns the newest usage records for userID.
func (l *Ledger) ListUsage(ctx context.Context, userID string, limit int) ([]domain.UsageRecord, error) {
	if limit <= 0 {
		limit = DefaultUsageLimit
	}
	if limit > MaxUsageLimit {
		limit = MaxUsageLimit
	}
	rows, err := l.sql.Query(ctx, sqlinline.QListUsage, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list usage: %w", err)
	}
	defer rows.Close()

	items := make([]domain.UsageRecord, 0, limit)
	for rows.Next() {
		var rec domain.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Model, &rec.Cost, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan usage: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list usage: %w", err)
	}
	return items, nil
}

// UsageSummary returns how many usage records userID has and their total cost.
func (l *Ledger) UsageSummary(ctx context.Context, userID string) (int64, decimal.Decimal, error) {
	var count int64
	var total decimal.Decimal
	if err := l.sql.QueryRow(ctx, sqlinline.QCountUsage, userID).Scan(&count, &total); err != nil {
		return 0, decimal.Zero, fmt.Errorf("ledger: usage summary: %w", err)
	}
	return count, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.AccountStatus, error) {
	var (
		s          domain.AccountStatus
		plan       string
		state      string
		expiresAt  *time.Time
		lastUsedAt *time.Time
	)
	if err := row.Scan(&s.UserID, &plan, &state, &s.Balance, &s.TotalSpent, &expiresAt, &lastUsedAt, &s.UpdatedAt); err != nil {
		return domain.AccountStatus{}, err
	}
	s.Plan = domain.AccountPlan(plan)
	s.Status = domain.AccountState(state)
	s.ExpiresAt = expiresAt
	s.LastUsedAt = lastUsedAt
	return s, nil
}

var _ domain.AccountLedger = (*Ledger)(nil)
