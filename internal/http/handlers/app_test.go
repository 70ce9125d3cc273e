package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/access"
	"github.com/yang-smith/worker/internal/catalog"
	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/estimator"
	"github.com/yang-smith/worker/internal/infra/credentials"
	"github.com/yang-smith/worker/internal/middleware"
	"github.com/yang-smith/worker/internal/proxy"
)

const testCatalog = `
version = 1

[[models]]
id = "google/gemini-2.5-flash"
provider = "openrouter"
category = "chat"
endpoint = "%[1]s/chat"
enabled = true
  [models.pricing]
  input = "0.000001"
  output = "0.000002"

[[models]]
id = "gpt-4o-mini"
provider = "openrouter"
category = "chat"
endpoint = "%[1]s/chat"
enabled = true
  [models.pricing]
  input = "0.00015"
  output = "0.0006"
  [models.limits]
  max_tokens = 16384

[[models]]
id = "text-embedding-ada-002"
provider = "dmxapi"
category = "embedding"
endpoint = "%[1]s/embed"
enabled = true
  [models.pricing]
  input = "0.0001"
  output = "0"

[[models]]
id = "retired-model"
provider = "openrouter"
category = "chat"
endpoint = "%[1]s/chat"
enabled = false
  [models.pricing]
  input = "1"
  output = "1"
`

type debitCall struct {
	userID string
	model  string
	amount decimal.Decimal
}

// fakeLedger is an in-memory domain.AccountLedger.
type fakeLedger struct {
	mu          sync.Mutex
	accounts    map[string]domain.AccountStatus
	debits      []debitCall
	rejectDebit bool
	debitErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: map[string]domain.AccountStatus{}}
}

func (f *fakeLedger) set(userID string, state domain.AccountState, balance string) {
	s := domain.DefaultAccountStatus(userID)
	s.Status = state
	s.Balance = decimal.RequireFromString(balance)
	f.mu.Lock()
	f.accounts[userID] = s
	f.mu.Unlock()
}

func (f *fakeLedger) GetOrCreate(_ context.Context, userID string) (domain.AccountStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.accounts[userID]
	if !ok {
		s = domain.DefaultAccountStatus(userID)
		f.accounts[userID] = s
	}
	return s, nil
}

func (f *fakeLedger) Debit(_ context.Context, userID, model string, amount decimal.Decimal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return false, f.debitErr
	}
	s := f.accounts[userID]
	if f.rejectDebit || s.Balance.LessThan(amount) {
		return false, nil
	}
	s.Balance = s.Balance.Sub(amount)
	s.TotalSpent = s.TotalSpent.Add(amount)
	f.accounts[userID] = s
	f.debits = append(f.debits, debitCall{userID: userID, model: model, amount: amount})
	return true, nil
}

func (f *fakeLedger) Stats(ctx context.Context, userID string) domain.AccountStatus {
	s, _ := f.GetOrCreate(ctx, userID)
	return s
}

func (f *fakeLedger) ListUsage(context.Context, string, int) ([]domain.UsageRecord, error) {
	return nil, nil
}

func (f *fakeLedger) UsageSummary(context.Context, string) (int64, decimal.Decimal, error) {
	return 0, decimal.Zero, nil
}

func (f *fakeLedger) debitCalls() []debitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]debitCall(nil), f.debits...)
}

type upstreamCall struct {
	method string
	path   string
	body   string
}

type testEnv struct {
	app      *App
	ledger   *fakeLedger
	upstream *httptest.Server
	calls    chan upstreamCall
}

func newTestEnv(t *testing.T, upstream http.HandlerFunc) *testEnv {
	t.Helper()
	calls := make(chan upstreamCall, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls <- upstreamCall{method: r.Method, path: r.URL.Path, body: string(b)}
		upstream(w, r)
	}))
	t.Cleanup(srv.Close)

	cat, err := catalog.Parse([]byte(fmt.Sprintf(testCatalog, srv.URL)))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	store, err := credentials.NewStore(map[string]string{"openrouter": "or-key", "dmxapi": "dmx-key"})
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	logger := zerolog.New(io.Discard)
	ledger := newFakeLedger()
	app := &App{
		Ledger:       ledger,
		Guard:        access.NewGuard(ledger),
		Estimator:    estimator.New(cat),
		Catalog:      cat,
		Forwarder:    proxy.NewForwarder(cat, store, proxy.Options{Timeout: 5 * time.Second}, logger),
		Logger:       logger,
		DefaultModel: "google/gemini-2.5-flash",
	}
	return &testEnv{app: app, ledger: ledger, upstream: srv, calls: calls}
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"choices":[]}`))
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), domain.Identity{ID: userID, Email: userID + "@example.com"}))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func proxyRequest(userID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/proxy/chat/completions", bytes.NewBufferString(body))
	if userID == "" {
		return req
	}
	return authed(req, userID)
}
