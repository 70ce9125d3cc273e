package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yang-smith/worker/internal/access"
	"github.com/yang-smith/worker/internal/catalog"
	"github.com/yang-smith/worker/internal/estimator"
	"github.com/yang-smith/worker/internal/http/handlers"
	"github.com/yang-smith/worker/internal/http/httpapi"
	"github.com/yang-smith/worker/internal/infra"
	"github.com/yang-smith/worker/internal/infra/credentials"
	"github.com/yang-smith/worker/internal/infra/geoip"
	"github.com/yang-smith/worker/internal/ledger"
	"github.com/yang-smith/worker/internal/middleware"
	"github.com/yang-smith/worker/internal/proxy"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	models, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model catalog")
	}
	creds, err := credentials.NewStore(cfg.ProviderKeys)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid provider credentials")
	}
	if err := creds.Require(models.Providers()...); err != nil {
		logger.Fatal().Err(err).Msg("provider credentials incomplete")
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	defer geo.Close()

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	accounts := ledger.New(infra.NewSQLRunner(dbpool, logger), logger)
	app := &handlers.App{
		Ledger:    accounts,
		Guard:     access.NewGuard(accounts),
		Estimator: estimator.New(models),
		Catalog:   models,
		Forwarder: proxy.NewForwarder(models, creds, proxy.Options{
			Timeout: cfg.UpstreamTimeout,
			Referer: cfg.OpenRouterReferer,
			Title:   cfg.OpenRouterTitle,
		}, logger),
		DB:           dbpool,
		Logger:       logger,
		DefaultModel: cfg.DefaultModel,
	}

	var country middleware.CountryLookup
	if geo != nil {
		country = geo.Country
	}
	router := httpapi.NewRouter(app, logger, httpapi.Options{
		SessionSecret:  cfg.SessionSecret,
		SessionIssuer:  cfg.SessionIssuer,
		RateLimit:      cfg.RateLimitPerMin,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Country:        country,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Int("models", len(models.ListEnabled())).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
