// Command hrsync-server starts the HR data synchronization service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datasaude/hrsync/internal/config"
	"github.com/datasaude/hrsync/internal/migrate"
	"github.com/datasaude/hrsync/internal/repository/postgres"
	httpserver "github.com/datasaude/hrsync/internal/server/http"
	"github.com/datasaude/hrsync/internal/soc"
	"github.com/datasaude/hrsync/internal/syncer"
	"github.com/datasaude/hrsync/internal/tasks"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server
// with the background sync dispatcher.
func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	credsRepo := postgres.NewCredentialsRepo(db)
	employeeRepo := postgres.NewEmployeeRepo(db)
	absenceRepo := postgres.NewAbsenceRepo(db)
	syncLogRepo := postgres.NewSyncLogRepo(db)

	// Provider gateway and sync engine
	gateway := soc.NewClient(cfg.SOCBaseURL, cfg.SOCTimeout, logger)
	syncSvc := syncer.New(credsRepo, employeeRepo, absenceRepo, syncLogRepo,
		gateway, logger, cfg.Workers)

	dispatcher := tasks.NewDispatcher(syncSvc, syncLogRepo, credsRepo, logger)
	if cfg.SyncSchedule != "" {
		if err := dispatcher.StartSchedule(cfg.SyncSchedule); err != nil {
			logger.Fatal("start sync schedule", zap.Error(err))
		}
	}

	// HTTP server
	api := httpserver.New(syncLogRepo, dispatcher, syncSvc, logger, cfg.HistoryLimit)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Error("dispatcher shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
