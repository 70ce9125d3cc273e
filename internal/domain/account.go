package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountPlan enumerates billing plans.
type AccountPlan string

const (
	AccountPlanFree    AccountPlan = "free"
	AccountPlanMonthly AccountPlan = "monthly"
	AccountPlanYearly  AccountPlan = "yearly"
)

func (p AccountPlan) Valid() bool {
	switch p {
	case AccountPlanFree, AccountPlanMonthly, AccountPlanYearly:
		return true
	}
	return false
}

// AccountState enumerates subscription states.
type AccountState string

const (
	AccountStateActive    AccountState = "active"
	AccountStateExpired   AccountState = "expired"
	AccountStateCancelled AccountState = "cancelled"
)

func (s AccountState) Valid() bool {
	switch s {
	case AccountStateActive, AccountStateExpired, AccountStateCancelled:
		return true
	}
	return false
}

// DefaultStartingBalance is credited to every lazily created account.
var DefaultStartingBalance = decimal.NewFromInt(5)

// AccountStatus is the per-user prepaid ledger row.
type AccountStatus struct {
	UserID     string
	Plan       AccountPlan
	Status     AccountState
	Balance    decimal.Decimal
	TotalSpent decimal.Decimal
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	UpdatedAt  time.Time
}

// DefaultAccountStatus returns the view of a freshly created account.
func DefaultAccountStatus(userID string) AccountStatus {
	return AccountStatus{
		UserID:     userID,
		Plan:       AccountPlanFree,
		Status:     AccountStateActive,
		Balance:    DefaultStartingBalance,
		TotalSpent: decimal.Zero,
	}
}

// IsActive reports whether the subscription allows usage at the given instant.
func (a AccountStatus) IsActive(now time.Time) bool {
	if a.Status != AccountStateActive {
		return false
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return false
	}
	return true
}

// UsageRecord is the append-only record written alongside every successful debit.
type UsageRecord struct {
	ID        string
	UserID    string
	Model     string
	Cost      decimal.Decimal
	CreatedAt time.Time
}
