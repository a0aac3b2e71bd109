package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cantina/internal/config"
	"cantina/internal/infra"
	"cantina/internal/repository"
	"cantina/internal/router"
	"cantina/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	store := repository.NewEntityStore(db, repository.WithRetryPolicy(repository.RetryPolicy{
		MaxAttempts: cfg.LedgerMaxAttempts,
		Backoff:     time.Duration(cfg.LedgerRetryBackoffMS) * time.Millisecond,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	deps := router.Deps{Store: store}
	var pool *worker.Pool
	if rdb != nil {
		// Registered first so it runs after the bridge has been closed.
		store.OnClose(rdb.Close)

		if _, err := repository.StartRedisBridge(ctx, rdb, store); err != nil {
			log.Fatal().Err(err).Msg("failed to start change bridge")
		}

		// Worker handlers are wired here (composition root) so that the
		// pool has full access to the infrastructure dependencies.
		mailer := infra.NewMailer(cfg)
		breaker := infra.NewBreaker("smtp", infra.BreakerConfig{})
		var sender worker.Sender
		if mailer.Configured() {
			sender = mailer
		}
		handlers := worker.Handlers{
			worker.JobLowStockAlert: worker.NewAlertWorker(sender, breaker, cfg.AlertEmail),
			worker.JobInvoicePDF:    worker.NewInvoiceWorker(store.Invoices, cfg.PDFStoragePath, sender, breaker, cfg.AlertEmail),
		}
		pool = worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

		deps.Redis = rdb
		deps.Jobs = worker.NewDispatcher(rdb)
		deps.MailBreaker = breaker
	} else {
		log.Warn().Msg("REDIS_URL not set: background jobs and cross-replica change push disabled")
	}

	r := router.New(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cantina backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("server exited")
}
