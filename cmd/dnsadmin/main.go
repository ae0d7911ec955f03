package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsadmin/internal/adapters/api"
	"github.com/poyrazK/dnsadmin/internal/adapters/cache"
	"github.com/poyrazK/dnsadmin/internal/adapters/repository"
	"github.com/poyrazK/dnsadmin/internal/config"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/core/services"
	"github.com/poyrazK/dnsadmin/internal/infrastructure/metrics"
	"github.com/poyrazK/dnsadmin/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("dnsadmin stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("could not ping database")
	}
	cancel()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reportPoolStats(gctx, db, cleanupInterval) })

	local := cache.NewLocalViewCache(cfg.Policy.ViewCacheTTL)
	g.Go(func() error { return local.Run(gctx, cleanupInterval) })

	var views ports.ViewCache = local
	if cfg.Redis.Addr != "" {
		shared := cache.NewRedisViewCache(cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Policy.ViewCacheTTL,
			Local:    local,
			Logger:   &logger,
		})
		defer func() {
			if err := shared.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close redis client")
			}
		}()
		g.Go(func() error { return shared.Listen(gctx) })
		views = shared
	}

	repo := repository.NewPostgresRepository(db)
	svc := services.NewAdminService(repo, services.AdminOptions{
		Profile:  cfg.Policy.Profile,
		RuleMode: cfg.Policy.RuleMode,
		Cache:    views,
		Logger:   &logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           api.NewAPIHandler(svc, repo, &logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("management API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// reportPoolStats publishes the open connection count until ctx is cancelled.
func reportPoolStats(ctx context.Context, db *sql.DB, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		metrics.DBConnectionsActive.Set(float64(db.Stats().OpenConnections))
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
