package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vouchly/voucher_ledger/internal/adapters/artifacts"
	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/adapters/database/pgsql"
	gmailfeed "github.com/vouchly/voucher_ledger/internal/adapters/feed/gmail"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/core/services"
	"github.com/vouchly/voucher_ledger/internal/handlers"
	"github.com/vouchly/voucher_ledger/internal/middleware"
	"github.com/vouchly/voucher_ledger/internal/platform/lock"
	"github.com/vouchly/voucher_ledger/pkg/config"
	"github.com/vouchly/voucher_ledger/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Single-flight guard: shared through Redis when configured, otherwise
	// process-local.
	var guard lock.RunGuard = lock.NewLocalGuard()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to parse Redis URL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		guard = lock.NewRedisGuard(redisClient)
		logger.Info("Using Redis run guard")
	}

	artifactStore, err := artifacts.NewFSStore(cfg.BarcodesDir)
	if err != nil {
		logger.Error("Failed to initialize artifact store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(&repos, cfg, artifactStore, guard)

	// Optional Gmail feed; the polling loop and the manual run endpoint are
	// both disabled when it is not configured.
	var feed portssvc.VoucherFeed
	if cfg.GmailCredentialsJSON != "" && cfg.GmailTokenJSON != "" {
		gf, err := gmailfeed.NewFeed(ctx, []byte(cfg.GmailCredentialsJSON), []byte(cfg.GmailTokenJSON), cfg.SubjectKeyword)
		if err != nil {
			logger.Error("Failed to initialize Gmail feed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		feed = gf
	}

	// Background workers
	go services.StartReaper(ctx, serviceContainer.Claim, serviceContainer.Session, cfg.ReaperInterval, logger.With(slog.String("worker", "reaper")))
	if feed != nil {
		go pollFeed(ctx, serviceContainer.Ingestion, feed, cfg.PollInterval, logger.With(slog.String("worker", "ingestion")))
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, feed)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

// runMigrations applies pending schema migrations over a temporary
// database/sql connection, using the pgx stdlib driver so it is compatible
// with the main pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer migrationDB.Close()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil {
		return sourceErr
	} else if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// pollFeed drains the feed on a fixed interval until ctx is cancelled. A
// failed run is logged and retried on the next tick; the single-flight guard
// inside RunIngestion keeps overlapping runs out.
func pollFeed(ctx context.Context, ingestion portssvc.IngestionSvc, feed portssvc.VoucherFeed, interval time.Duration, logger *slog.Logger) {
	ctx = middleware.WithLogger(ctx, logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Feed polling started", slog.String("source", feed.Source()), slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Feed polling stopped")
			return
		case <-ticker.C:
			if _, err := ingestion.RunIngestion(ctx, feed); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, apperrors.ErrBusy) {
				logger.Error("Ingestion run failed", slog.String("error", err.Error()))
			}
		}
	}
}
