package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/infra"
	"github.com/yang-smith/worker/internal/sqlinline"
)

// PlanChange describes an operator edit of a subscription. A nil ExpiresAt
// clears the expiry.
type PlanChange struct {
	Plan      domain.AccountPlan
	Status    domain.AccountState
	ExpiresAt *time.Time
}

// SetPlan applies change to an existing account. It returns
// domain.ErrNotFound when userID has no account yet.
func (l *Ledger) SetPlan(ctx context.Context, userID string, change PlanChange) (domain.AccountStatus, error) {
	if userID == "" {
		return domain.AccountStatus{}, fmt.Errorf("ledger: %w: empty user id", domain.ErrUnauthorized)
	}
	if !change.Plan.Valid() {
		return domain.AccountStatus{}, fmt.Errorf("ledger: unsupported plan %q", change.Plan)
	}
	if !change.Status.Valid() {
		return domain.AccountStatus{}, fmt.Errorf("ledger: unsupported status %q", change.Status)
	}
	row := l.sql.QueryRow(ctx, sqlinline.QUpdateAccountPlan, userID, string(change.Plan), string(change.Status), change.ExpiresAt)
	status, err := scanAccount(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return domain.AccountStatus{}, fmt.Errorf("ledger: account %s: %w", userID, domain.ErrNotFound)
		}
		return domain.AccountStatus{}, fmt.Errorf("ledger: set plan: %w", err)
	}
	l.logger.Info().
		Str("user_id", userID).
		Str("plan", string(status.Plan)).
		Str("status", string(status.Status)).
		Msg("plan updated")
	return status, nil
}

// ExpireLapsed marks active accounts whose expiry is before now as expired
// and returns how many rows changed.
func (l *Ledger) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := l.sql.Exec(ctx, sqlinline.QExpireLapsedAccounts, now)
	if err != nil {
		return 0, fmt.Errorf("ledger: expire lapsed: %w", err)
	}
	return tag.RowsAffected(), nil
}
