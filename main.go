package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/camden-git/namerecall/config"
	"github.com/camden-git/namerecall/handlers"
	"github.com/camden-git/namerecall/logging"
	"github.com/camden-git/namerecall/media"
	"github.com/camden-git/namerecall/monitoring"
	"github.com/camden-git/namerecall/realtime"
	"github.com/camden-git/namerecall/registry"
	"github.com/camden-git/namerecall/session"
	"github.com/camden-git/namerecall/store"
	"github.com/camden-git/namerecall/web"
	"github.com/camden-git/namerecall/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		log.Printf("Warning: Failed to create configured logger, using defaults: %v", err)
		logger = logging.NewDefault()
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	if cfg.Driver() != store.DriverMemory {
		dir := filepath.Dir(cfg.DatabasePath)
		logger.Info("ensuring storage directory exists", zap.String("dir", dir))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	st, err := store.Open(cfg.Driver(), cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	metrics := monitoring.NewMetrics()
	hub := realtime.NewHub(metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []registry.Option{
		registry.WithMetrics(metrics),
		registry.WithLogger(logger),
		registry.WithListener(hub.Listener()),
	}
	var reg *registry.Registry
	if cfg.StoreResetOnCorrupt {
		reg, err = registry.OpenLenient(ctx, st, opts...)
		if err != nil {
			metrics.RecordPersistenceFailure("load")
			logger.Warn("stored people could not be loaded, starting empty", zap.Error(err))
		}
	} else {
		reg, err = registry.Open(ctx, st, opts...)
		if err != nil {
			metrics.RecordPersistenceFailure("load")
			return fmt.Errorf("failed to load people (set STORE_RESET_ON_CORRUPT=true to start empty): %w", err)
		}
	}
	logger.Info("registry loaded",
		zap.String("driver", string(st.Driver())),
		zap.String("database", cfg.DatabasePath),
		zap.Int("people", reg.Len()),
	)

	reader := workers.NewAvatarReader(media.NewProcessor(cfg.AvatarMaxSize), cfg.AvatarQueueSize, cfg.AvatarWorkers, metrics, logger)
	defer reader.Stop()

	cache, err := web.NewShellCache(cfg.CacheName, logger)
	if err != nil {
		return err
	}
	sw, err := web.ServiceWorker(cfg.CacheName)
	if err != nil {
		return err
	}

	go hub.Run(ctx)

	router := handlers.NewRouter(handlers.RouterConfig{
		Session:        session.New(reg),
		AvatarReader:   reader,
		MaxUploadBytes: cfg.AvatarMaxUploadBytes,
		Hub:            hub,
		Metrics:        metrics,
		Cache:          cache,
		ServiceWorker:  sw,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     logging.StdLogger(logger, "http"),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("cache", cfg.CacheName))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := reg.Flush(shutdownCtx); err != nil {
		logger.Error("unsaved people could not be written on shutdown", zap.Error(err))
	}
	return nil
}
