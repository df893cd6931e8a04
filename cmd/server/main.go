package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wizardguard/internal/config"
	"wizardguard/internal/observability/logging"
	"wizardguard/internal/observability/metrics"
	"wizardguard/internal/service"
	"wizardguard/internal/store"
	httpx "wizardguard/internal/transport/http"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "wizardguard",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg := config.Load()
	metrics.MustRegister("wizardguard")

	// Stores. Fingerprints optionally live in Redis so several server
	// instances can share the device cache; everything else is in-process.
	tokens := store.NewMemoryTokenStore()
	sessions := store.NewMemorySessionStore()

	var fingerprints store.FingerprintStore = store.NewMemoryFingerprintStore()
	if cfg.RedisAddr != "" {
		rfs, err := store.NewRedisFingerprintStore(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error("redis fingerprint store", "error", err)
			os.Exit(1)
		}
		fingerprints = rfs
		logger.Info("using redis fingerprint cache", "addr", cfg.RedisAddr)
	}
	defer func() {
		_ = tokens.Close()
		_ = sessions.Close()
		_ = fingerprints.Close()
	}()

	// Services.
	binder := service.NewDeviceBinder(tokens, fingerprints, sessions, cfg.MasterSecret, logger)
	binder.SetTTL(cfg.TokenTTL)
	tokenValidator := service.NewTokenValidator(tokens, cfg.MasterSecret, logger)
	trustValidator := service.NewTrustValidator()
	classifier := service.NewActivityClassifier()
	game := service.NewGameService(sessions, logger)

	handler := httpx.NewHandler(binder, tokenValidator, trustValidator, classifier, game, logger)
	router := httpx.NewRouter(httpx.RouterConfig{CORSOrigins: cfg.CORSOrigins}, handler)

	// Expiry is checked lazily at validation time; the sweeper only bounds
	// memory held by tokens that are never validated.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweepTokens(ctx, tokens, cfg.SweepInterval, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("wizardguard listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func sweepTokens(ctx context.Context, tokens store.TokenStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := tokens.SweepExpired(time.Now().UTC()); removed > 0 {
				logger.Debug("swept expired tokens", "removed", removed)
			}
		}
	}
}
