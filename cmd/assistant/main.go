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

	githubadapter "github.com/vertesia/github-assistant/internal/adapter/driven/github"
	sqliteadapter "github.com/vertesia/github-assistant/internal/adapter/driven/sqlite"
	vertesiaadapter "github.com/vertesia/github-assistant/internal/adapter/driven/vertesia"
	httphandler "github.com/vertesia/github-assistant/internal/adapter/driving/http"
	"github.com/vertesia/github-assistant/internal/application"
	"github.com/vertesia/github-assistant/internal/config"
	"github.com/vertesia/github-assistant/internal/logging"
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

	// 2. Install the process logger.
	logger := logging.Setup(cfg.LogLevel)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"content_api_url", cfg.ContentAPIURL,
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info("migrations complete")

	// 6. Wire driven adapters.
	instanceStore := sqliteadapter.NewInstanceRepo(db)
	gateStore := sqliteadapter.NewGateRepo(db)
	reviewProcStore := sqliteadapter.NewReviewProcessRepo(db)

	ghClient := githubadapter.NewClient(cfg.GitHubToken)
	contentClient := vertesiaadapter.NewClient(cfg.ContentAPIURL, cfg.ContentStore, cfg.ContentAPIKey)

	// 7. Wire the application core.
	gates := application.NewBehaviorGates(gateStore, logger)
	reviews := application.NewReviewRunner(ghClient, contentClient, logger)
	assistant := application.NewAssistant(ghClient, contentClient, instanceStore, reviewProcStore, gates, reviews, logger)
	dispatcher := application.NewDispatcher(assistant, logger)

	// 8. Create HTTP handler and server.
	handler := httphandler.NewHandler(dispatcher, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("github assistant started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 10. Stop accepting webhook deliveries, then drain the dispatcher so
	// in-flight instances and review sub-processes finish their work.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	dispatcher.Shutdown()

	logger.Info("shutdown complete")
	return nil
}
