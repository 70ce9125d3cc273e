package migrations

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func TestApplyIsIdempotent(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	if _, err := Apply(ctx, db, logger); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	again, err := Apply(ctx, db, logger)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second Apply re-ran %v", again)
	}

	var n int
	if err := db.QueryRowContext(ctx, `select count(*) from schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	all, _ := All()
	if n < len(all) {
		t.Fatalf("schema_migrations has %d rows, want at least %d", n, len(all))
	}
}
