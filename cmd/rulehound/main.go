package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/rulehound/rulehound/internal/adapter/driven/gitclient"
	sqliteadapter "github.com/rulehound/rulehound/internal/adapter/driven/sqlite"
	"github.com/rulehound/rulehound/internal/adapter/driven/yaraparser"
	httphandler "github.com/rulehound/rulehound/internal/adapter/driving/http"
	"github.com/rulehound/rulehound/internal/application"
	"github.com/rulehound/rulehound/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"staging_dir", cfg.StagingDir,
		"repos", len(cfg.Repos),
		"collect_interval", cfg.CollectInterval,
		"strict_sync", cfg.StrictSync,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	catalogStore := sqliteadapter.NewCatalogRepo(db)
	git := gitclient.NewClient()
	parser := yaraparser.NewParser()

	// 6. Create services.
	mode := application.ModePermissive
	if cfg.StrictSync {
		mode = application.ModeStrict
	}
	collectSvc := application.NewCollectService(
		git,
		parser,
		catalogStore,
		cfg.Repos,
		cfg.StagingDir,
		cfg.CollectInterval,
		cfg.CollectWorkers,
		mode,
		slog.Default(),
	)
	go collectSvc.Start(ctx)

	tokenSvc := application.NewTokenService(
		[]byte(cfg.JWTSecret),
		cfg.JWTIssuer,
		cfg.TokenTTL,
		cfg.APIClientKeys(),
	)

	// 7. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(catalogStore, collectSvc, tokenSvc, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("rulehound started",
		"listen_addr", cfg.ListenAddr,
		"collect_interval", cfg.CollectInterval,
		"workers", cfg.CollectWorkers,
	)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with a 10s drain window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
