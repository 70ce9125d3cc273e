// Package access decides whether a caller may use metered endpoints.
package access

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/domain"
)

const (
	ReasonInactive     = "subscription not active"
	ReasonInsufficient = "insufficient balance"
)

// Decision is the outcome of a pre-flight access check.
type Decision struct {
	CanUse  bool
	Balance decimal.Decimal
	Reason  string
}

type accountSource interface {
	GetOrCreate(ctx context.Context, userID string) (domain.AccountStatus, error)
}

// Guard checks subscription state and balance before any estimate is made.
type Guard struct {
	accounts accountSource
	now      func() time.Time
}

func NewGuard(accounts accountSource) *Guard {
	return &Guard{accounts: accounts, now: time.Now}
}

// CheckAccess returns a denial with a reason rather than an error for
// inactive or drained accounts. Errors are reserved for storage failures.
func (g *Guard) CheckAccess(ctx context.Context, userID string) (Decision, error) {
	status, err := g.accounts.GetOrCreate(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if !status.IsActive(g.now()) {
		return Decision{CanUse: false, Balance: status.Balance, Reason: ReasonInactive}, nil
	}
	if !status.Balance.IsPositive() {
		return Decision{CanUse: false, Balance: status.Balance, Reason: ReasonInsufficient}, nil
	}
	return Decision{CanUse: true, Balance: status.Balance}, nil
}
