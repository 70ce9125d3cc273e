package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountLedger defines balance accounting for callers of the proxy.
type AccountLedger interface {
	GetOrCreate(ctx context.Context, userID string) (AccountStatus, error)
	Debit(ctx context.Context, userID, model string, amount decimal.Decimal) (bool, error)
	// Stats never fails; storage errors yield DefaultAccountStatus.
	Stats(ctx context.Context, userID string) AccountStatus
	ListUsage(ctx context.Context, userID string, limit int) ([]UsageRecord, error)
	UsageSummary(ctx context.Context, userID string) (count int64, total decimal.Decimal, err error)
}
