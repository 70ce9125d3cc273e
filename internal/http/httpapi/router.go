package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/yang-smith/worker/internal/http/handlers"
	"github.com/yang-smith/worker/internal/middleware"
)

type Options struct {
	SessionSecret  string
	SessionIssuer  string
	RateLimit      int
	AllowedOrigins []string
	Country        middleware.CountryLookup
}

func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Country(opts.Country),
	)

	r.Get("/healthz", app.Health)
	r.Get("/readyz", app.Ready)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(opts.SessionSecret, opts.SessionIssuer))

		r.Get("/stats", app.Stats)
		r.Get("/models", app.Models)
		r.Get("/usage", app.Usage)
		r.Post("/topup", app.Topup)

		r.With(middleware.RateLimit(opts.RateLimit, time.Minute)).HandleFunc("/proxy/*", app.Proxy)
	})

	return r
}
