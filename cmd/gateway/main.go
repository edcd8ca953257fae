package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayamansour/souqsync/api/routes"
	"github.com/ayamansour/souqsync/internal/catalog"
	"github.com/ayamansour/souqsync/internal/session"
	"github.com/ayamansour/souqsync/internal/upstream"
	"github.com/ayamansour/souqsync/pkg/config"
	"github.com/ayamansour/souqsync/pkg/db"
	"github.com/ayamansour/souqsync/pkg/logger"
	"github.com/ayamansour/souqsync/pkg/metrics"
	"github.com/ayamansour/souqsync/pkg/migrate"
	"github.com/ayamansour/souqsync/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	upstreamClient, err := upstream.NewClient(cfg.Upstream, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create upstream client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	snapshots := session.NewSnapshotRepository(dbClient)
	manager, err := session.NewManager(upstreamClient, snapshots, syncMetrics, cfg.Sync.QueueSize, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	if err := manager.PruneStaleGuests(context.Background(), cfg.Session.IdleTTL); err != nil {
		logg.Error(context.Background(), "failed to prune stale guest snapshots", err)
	}

	enricher, err := catalog.NewEnricher(upstreamClient, redisClient, cfg.Catalog.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog enricher", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting gateway server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, manager, enricher, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "error shutting down http server", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "error draining session engines", err)
	}
	logg.Info(ctx, "gateway stopped")
}
