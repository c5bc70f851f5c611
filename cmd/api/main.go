package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tillsync/internal/config"
	"github.com/MrJamesThe3rd/tillsync/internal/database"
	tillHttp "github.com/MrJamesThe3rd/tillsync/internal/http"
	"github.com/MrJamesThe3rd/tillsync/internal/http/syncapi"
	"github.com/MrJamesThe3rd/tillsync/internal/logging"
	"github.com/MrJamesThe3rd/tillsync/internal/remote"
	remoteStore "github.com/MrJamesThe3rd/tillsync/internal/remote/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.Setup(logging.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		File:   cfg.App.LogFile,
	})
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, health, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	service := remote.NewService(repo, cfg.Server.ReportsPullLimit)

	router := tillHttp.New(
		tillHttp.Options{
			Secret:      []byte(cfg.Auth.Secret),
			CORSOrigins: cfg.Server.CORSOrigins,
			Health:      health,
		},
		syncapi.NewHandler(service.Categories()),
		syncapi.NewHandler(service.Products()),
		syncapi.NewHandler(service.Transactions()),
		syncapi.NewHandler(service.Expenses()),
		syncapi.NewHandler(service.Reports()),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	if cfg.Auth.Secret == "" {
		logger.Warn("SYNC_SECRET not set, sync routes are unauthenticated")
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server", "error", err)
		}
	}()

	logger.Info("starting server", "port", server.Addr, "store", cfg.DB.Store)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openRepository returns the configured record store, its health check and a
// release func.
func openRepository(ctx context.Context, cfg *config.Config) (remote.Repository, func(context.Context) error, func(), error) {
	switch cfg.DB.Store {
	case "memory":
		return remote.NewMemory(), nil, func() {}, nil
	case "postgres":
	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE %q", cfg.DB.Store)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return remoteStore.New(db), db.PingContext, func() { db.Close() }, nil
}
