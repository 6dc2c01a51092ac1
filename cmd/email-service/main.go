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

	"github.com/sungwon/email-dispatch/internal/api"
	"github.com/sungwon/email-dispatch/internal/config"
	"github.com/sungwon/email-dispatch/internal/consumer"
	"github.com/sungwon/email-dispatch/internal/idempotency"
	"github.com/sungwon/email-dispatch/internal/logger"
	"github.com/sungwon/email-dispatch/internal/mailer"
	"github.com/sungwon/email-dispatch/internal/status"
	"github.com/sungwon/email-dispatch/internal/storage"
	"github.com/sungwon/email-dispatch/internal/templates"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewFromConfig(cfg.Logging)
	log.Info().Msg("starting email dispatch service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the status store
	db, err := storage.NewDB(
		ctx,
		cfg.Database.URL,
		cfg.Database.PoolMin,
		cfg.Database.PoolMax,
		cfg.Database.ConnectTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	recorder, err := status.NewRecorder(ctx, db.Pool, cfg.Database.StatusTable, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize status recorder")
	}

	// Shared render + deliver components
	resolver := templates.NewClient(cfg.Template.BaseURL, cfg.Template.Timeout)
	renderer := templates.NewRenderer(log)
	sender := mailer.New(cfg.SMTP, log)
	if !sender.Configured() {
		log.Warn().Msg("smtp transport not fully configured, deliveries will be simulated")
	}

	cache := idempotency.New(cfg.Redis, log)
	defer cache.Close()

	// HTTP API task
	router := api.NewRouter(sender, db, cache, log)
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	// Queue consumer task
	processor := consumer.NewProcessor(resolver, renderer, sender, recorder, cfg.Provider.Name, log)
	cons := consumer.New(cfg.Queue, processor, log)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- cons.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-consumerDone:
		if err != nil {
			log.Error().Err(err).Msg("consumer stopped with error")
		}
		stop()
	}

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	cons.Close()

	log.Info().Msg("service stopped")
}
