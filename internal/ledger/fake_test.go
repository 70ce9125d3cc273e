package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/sqlinline"
)

// memStore emulates the ledger statements against in-memory tables. Each
// statement runs under one lock, which mirrors the row lock Postgres takes
// for the conditional update.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*memAccount
	usage    []memUsage
	failAll  error
	queries  []string
	// lostRace makes the next upsert behave like a concurrent creator won:
	// the row is inserted by "someone else" and the statement returns no rows.
	lostRace bool
}

type memAccount struct {
	userID     string
	plan       string
	status     string
	balance    decimal.Decimal
	totalSpent decimal.Decimal
	expiresAt  *time.Time
	lastUsedAt *time.Time
	updatedAt  time.Time
}

type memUsage struct {
	id        string
	userID    string
	model     string
	cost      decimal.Decimal
	createdAt time.Time
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]*memAccount{}}
}

func (m *memStore) seed(userID string, balance string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[userID] = &memAccount{
		userID:     userID,
		plan:       "free",
		status:     "active",
		balance:    decimal.RequireFromString(balance),
		totalSpent: decimal.Zero,
		updatedAt:  time.Now(),
	}
}

func (m *memStore) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.failAll != nil {
		return pgconn.CommandTag{}, m.failAll
	}
	if query != sqlinline.QExpireLapsedAccounts {
		return pgconn.CommandTag{}, errors.New("exec not supported")
	}
	now := args[0].(time.Time)
	n := 0
	for _, acc := range m.accounts {
		if acc.status == "active" && acc.expiresAt != nil && acc.expiresAt.Before(now) {
			acc.status = "expired"
			acc.updatedAt = now
			n++
		}
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", n)), nil
}

func (m *memStore) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.failAll != nil {
		return memRow{err: m.failAll}
	}

	switch query {
	case sqlinline.QUpsertAccount:
		userID := args[0].(string)
		acc, ok := m.accounts[userID]
		if !ok {
			acc = &memAccount{
				userID:     userID,
				plan:       "free",
				status:     "active",
				balance:    decimal.RequireFromString(args[1].(string)),
				totalSpent: decimal.Zero,
				updatedAt:  time.Now(),
			}
			m.accounts[userID] = acc
			if m.lostRace {
				m.lostRace = false
				return memRow{err: pgx.ErrNoRows}
			}
		}
		return acc.row()
	case sqlinline.QSelectAccount:
		acc, ok := m.accounts[args[0].(string)]
		if !ok {
			return memRow{err: pgx.ErrNoRows}
		}
		return acc.row()
	case sqlinline.QDebitAccount:
		userID := args[0].(string)
		amount := decimal.RequireFromString(args[1].(string))
		acc, ok := m.accounts[userID]
		if !ok || acc.balance.LessThan(amount) {
			return memRow{err: pgx.ErrNoRows}
		}
		now := time.Now()
		acc.balance = acc.balance.Sub(amount)
		acc.totalSpent = acc.totalSpent.Add(amount)
		acc.lastUsedAt = &now
		acc.updatedAt = now
		m.usage = append(m.usage, memUsage{id: args[2].(string), userID: userID, model: args[3].(string), cost: amount, createdAt: now})
		return memRow{values: []any{acc.balance, args[2].(string)}}
	case sqlinline.QUpdateAccountPlan:
		acc, ok := m.accounts[args[0].(string)]
		if !ok {
			return memRow{err: pgx.ErrNoRows}
		}
		acc.plan = args[1].(string)
		acc.status = args[2].(string)
		acc.expiresAt = args[3].(*time.Time)
		acc.updatedAt = time.Now()
		return acc.row()
	case sqlinline.QCountUsage:
		var count int64
		total := decimal.Zero
		for _, u := range m.usage {
			if u.userID == args[0].(string) {
				count++
				total = total.Add(u.cost)
			}
		}
		return memRow{values: []any{count, total}}
	}
	return memRow{err: fmt.Errorf("unexpected query: %s", query)}
}

func (m *memStore) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.failAll != nil {
		return nil, m.failAll
	}
	if query != sqlinline.QListUsage {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	userID := args[0].(string)
	limit := args[1].(int)

	var matched []memUsage
	for _, u := range m.usage {
		if u.userID == userID {
			matched = append(matched, u)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].createdAt.After(matched[j].createdAt) })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	rows := &memRows{}
	for _, u := range matched {
		rows.values = append(rows.values, []any{u.id, u.userID, u.model, u.cost, u.createdAt})
	}
	return rows, nil
}

func (m *memStore) usageCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.usage {
		if u.userID == userID {
			n++
		}
	}
	return n
}

func (m *memStore) balance(userID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[userID].balance
}

func (a *memAccount) row() memRow {
	return memRow{values: []any{a.userID, a.plan, a.status, a.balance, a.totalSpent, a.expiresAt, a.lastUsedAt, a.updatedAt}}
}

type memRow struct {
	values []any
	err    error
}

func (r memRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type memRows struct {
	values [][]any
	pos    int
}

func (r *memRows) Close()                                       {}
func (r *memRows) Err() error                                   { return nil }
func (r *memRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *memRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *memRows) RawValues() [][]byte                          { return nil }
func (r *memRows) Conn() *pgx.Conn                              { return nil }

func (r *memRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *memRows) Scan(dest ...any) error {
	return assign(r.values[r.pos-1], dest)
}

func (r *memRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = values[i].(string)
		case *int64:
			*target = values[i].(int64)
		case *decimal.Decimal:
			*target = values[i].(decimal.Decimal)
		case *time.Time:
			*target = values[i].(time.Time)
		case **time.Time:
			*target = values[i].(*time.Time)
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}
