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

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/api"
	"github.com/fridgesaver/fridgesaver/internal/backend"
	"github.com/fridgesaver/fridgesaver/internal/config"
	"github.com/fridgesaver/fridgesaver/internal/database"
	"github.com/fridgesaver/fridgesaver/internal/logger"
	"github.com/fridgesaver/fridgesaver/internal/metrics"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	localStorage, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	if n, err := localStorage.Purge(); err != nil {
		log.Warn("failed to purge upload directory", zap.Error(err))
	} else if n > 0 {
		log.Info("removed leftover uploads", zap.Int("files", n))
	}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
	}, log.Named("backend"))
	m := metrics.New()

	var source recipes.Source = client
	if cfg.UseStubRecipes() {
		db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		if err := db.RunMigrations(context.Background()); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		source = recipes.NewCatalog(db, log.Named("catalog"))
	}

	sessions := api.NewSessionStore(
		cfg.SessionTTL,
		api.NewControllerFactory(m.Analyzer(client), m, log.Named("workflow")),
		log.Named("sessions"),
	)
	sessions.Start(time.Minute)

	app := &api.App{
		Storage:       localStorage,
		Recipes:       m.Source(cfg.RecipeSource, source),
		Lookup:        client,
		Sessions:      sessions,
		Metrics:       m,
		Logger:        log.Named("api"),
		MaxUploadSize: cfg.MaxUploadSize,
	}
	if err := app.LoadTemplates(); err != nil {
		log.Fatal("failed to load templates", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("server starting",
		zap.String("addr", srv.Addr),
		zap.String("backend_url", cfg.BackendURL),
		zap.String("recipe_source", cfg.RecipeSource),
		zap.String("upload_dir", cfg.UploadDir),
		zap.Int64("max_upload_size", cfg.MaxUploadSize),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}

	sessions.Close()
}
