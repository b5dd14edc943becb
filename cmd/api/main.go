package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/config"
	"saletrack.org/internal/httpapi"
	"saletrack.org/internal/obs"
	"saletrack.org/internal/sales"
	"saletrack.org/internal/store/pg"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		obs.Init("info")
		obs.Logger().Fatalw("load config", "error", err)
	}

	obs.Init(cfg.LogLevel)
	obs.InitMetrics()
	obs.InitBuildInfo(version, commit)
	logger := obs.Logger()

	tokens, err := auth.NewTokenService(cfg.AuthSecret, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		logger.Fatalw("token service", "error", err)
	}
	challenges, err := auth.NewChallengeService(cfg.AuthSecret, auth.WithChallengeTTL(cfg.ChallengeTTL))
	if err != nil {
		logger.Fatalw("challenge service", "error", err)
	}

	// Without a DSN the service runs on in-memory stores; useful for local
	// development, useless in production.
	var (
		salesStore sales.Store
		identities auth.IdentityStore
		probe      httpapi.ReadyProbe
	)
	if cfg.DatabaseDSN != "" {
		store, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatalw("open database", "error", err)
		}
		defer store.Close()
		salesStore = store
		identities = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		logger.Warnw("no database configured, using in-memory stores")
		salesStore = sales.NewMemory()
		identities = auth.NewMemoryIdentityStore()
	}

	svc, err := sales.NewService(salesStore)
	if err != nil {
		logger.Fatalw("sales service", "error", err)
	}

	api := httpapi.New(probe, version, tokens, challenges, identities, svc,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Infow("starting saletrack-api", "version", version, "addr", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	logger.Infow("stopped")
}
