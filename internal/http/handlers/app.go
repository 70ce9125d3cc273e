package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/yang-smith/worker/internal/access"
	"github.com/yang-smith/worker/internal/catalog"
	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/estimator"
	"github.com/yang-smith/worker/internal/middleware"
	"github.com/yang-smith/worker/internal/proxy"
)

// AccessChecker admits or denies a caller before estimation.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID string) (access.Decision, error)
}

// Forwarder resolves and calls upstream providers.
type Forwarder interface {
	Resolve(modelID string) (proxy.Target, error)
	Forward(ctx context.Context, target proxy.Target, method string, body []byte, acceptEncoding string) (*http.Response, error)
}

// Pinger reports storage liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Ledger       domain.AccountLedger
	Guard        AccessChecker
	Estimator    *estimator.Estimator
	Catalog      *catalog.Catalog
	Forwarder    Forwarder
	DB           Pinger
	Logger       zerolog.Logger
	DefaultModel string
	// MaxBodyBytes caps proxied request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

const DefaultMaxBodyBytes = 8 << 20

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]any{"error": msg})
}

func (a *App) currentIdentity(r *http.Request) (domain.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}
