package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cataloghttp "github.com/Pauloph98/giocakes/internal/catalog/http"
	"github.com/Pauloph98/giocakes/internal/catalog/repository"
	"github.com/Pauloph98/giocakes/internal/catalog/service"
	"github.com/Pauloph98/giocakes/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort        string
	DBDriver        string
	DatabaseURL     string
	MigrationsDir   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "5001"),
		DBDriver:        getEnv("DB_DRIVER", repository.DriverPostgres),
		DatabaseURL:     getEnv("DATABASE_URL", "host=localhost port=5432 user=catalog password=catalog dbname=catalog_db sslmode=disable"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "internal/catalog/repository/migrations"),
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	logger, err := observability.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, "catalog-service")
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	repo, err := repository.NewRepository(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(filepath.Join(cfg.MigrationsDir, cfg.DBDriver)); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("driver", cfg.DBDriver))

	catalogService := service.NewCatalogService(repo, logger)
	handler := cataloghttp.NewCatalogHandler(catalogService, logger, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "catalog-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("catalog service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down catalog service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("catalog service stopped")
}
