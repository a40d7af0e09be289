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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rentalsearch/internal/app"
	"rentalsearch/internal/config"
	"rentalsearch/internal/handler"
	logpkg "rentalsearch/internal/logger"
	"rentalsearch/internal/metrics"
	"rentalsearch/internal/repository"
	"rentalsearch/internal/service"
	"rentalsearch/internal/source"
	"rentalsearch/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rental search API",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("env", cfg.Env),
		zap.String("listing_source", cfg.Source.Kind))

	gin.SetMode(cfg.Server.GinMode)
	if cfg.Server.MetricsEnabled {
		metrics.Register()
	}

	var loader store.Loader
	var opts []service.Option

	switch cfg.Source.Kind {
	case config.SourceFile:
		loader = source.NewFileSource(cfg.Source.FilePath)
		logger.Info("Using YAML listing snapshot", zap.String("path", cfg.Source.FilePath))
	default:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer repo.Close()

		logger.Info("Connected to PostgreSQL database")
		loader = repo
		opts = append(opts, service.WithEmbeddingStore(repo))
		if cfg.Search.SearchLogEnabled {
			opts = append(opts, service.WithSearchLogger(repo))
		}
	}

	listingStore := store.New(loader, logger)
	if _, err := listingStore.Reload(context.Background()); err != nil {
		logger.Fatal("Failed to load listings", zap.Error(err))
	}

	searchService, cleanup, err := app.BuildSearchService(cfg, listingStore, logger, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer cleanup()

	router := handler.NewRouter(searchService, handler.RouterConfig{
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		AllowedMethods:      cfg.Server.AllowedMethods,
		AllowedHeaders:      cfg.Server.AllowedHeaders,
		MetricsEnabled:      cfg.Server.MetricsEnabled,
		EmbeddingDimensions: cfg.Search.EmbeddingDimensions,
		Build: handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		},
	}, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSecs)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
