package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/sqlinline"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

type usageRow struct {
	id        string
	userID    string
	model     string
	cost      string
	createdAt time.Time
}

type usageRows struct {
	testRowsBase
	rows []usageRow
	idx  int
}

func (r *usageRows) Close()     {}
func (r *usageRows) Err() error { return nil }

func (r *usageRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *usageRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	*dest[0].(*string) = row.id
	*dest[1].(*string) = row.userID
	*dest[2].(*string) = row.model
	*dest[3].(*decimal.Decimal) = decimal.RequireFromString(row.cost)
	*dest[4].(*time.Time) = row.createdAt
	return nil
}

// ledgerTestSQL answers the ledger's read statements from fixed data.
type ledgerTestSQL struct {
	usage     []usageRow
	lastLimit int
	fail      bool
}

func (s *ledgerTestSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec not expected")
}

func (s *ledgerTestSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if s.fail {
		return simpleRow{scan: func(...any) error { return errors.New("database unavailable") }}
	}
	switch query {
	case sqlinline.QCountUsage:
		return simpleRow{scan: func(dest ...any) error {
			total := decimal.Zero
			for _, u := range s.usage {
				total = total.Add(decimal.RequireFromString(u.cost))
			}
			*dest[0].(*int64) = int64(len(s.usage))
			*dest[1].(*decimal.Decimal) = total
			return nil
		}}
	}
	return simpleRow{scan: func(...any) error { return fmt.Errorf("unexpected query: %s", query) }}
}

func (s *ledgerTestSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.fail {
		return nil, errors.New("database unavailable")
	}
	if query != sqlinline.QListUsage {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	s.lastLimit = args[1].(int)
	rows := s.usage
	if len(rows) > s.lastLimit {
		rows = rows[:s.lastLimit]
	}
	return &usageRows{rows: rows}, nil
}
