package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/browser"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/captcha"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/csvfile"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/excel"
	kafkainfra "github.com/jvasquez2828/robot-runt-web/internal/infrastructure/kafka"
	miniostore "github.com/jvasquez2828/robot-runt-web/internal/infrastructure/minio"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/postgres"
	redisinfra "github.com/jvasquez2828/robot-runt-web/internal/infrastructure/redis"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/sheets"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/storage"
	"github.com/jvasquez2828/robot-runt-web/internal/interfaces/http/handlers"
	"github.com/jvasquez2828/robot-runt-web/internal/messaging"
	"github.com/jvasquez2828/robot-runt-web/pkg/config"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

var configPath = flag.String("config", "", "path to the YAML config file (optional, env vars override)")

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Interaction driver
	factory, err := browser.NewFactory(cfg.Portal, zapLogger)
	if err != nil {
		log.Fatalf("Failed to launch browser: %v", err)
	}
	defer factory.Close()

	// Solver
	solver := captcha.NewTwoCaptchaSolver(cfg.Captcha.APIKey, cfg.Captcha.Timeout, zapLogger)

	// Input batch source
	source := initSource(ctx, cfg, zapLogger)

	// Artifact store
	store := initStore(cfg, zapLogger)

	// Optional backends
	runRepo, db := initPostgres(cfg, zapLogger)
	if db != nil {
		defer db.Close()
	}
	cache := initRedis(ctx, cfg, zapLogger)
	if cache != nil {
		defer cache.Close()
	}

	// Progress transports: in-process hub for SSE, the service log, and
	// optionally a Kafka topic.
	hub := messaging.NewHub()
	sinks := []messaging.ProgressPublisher{hub, messaging.NewLogPublisher(zapLogger)}
	if cfg.Kafka.Enabled {
		producer, err := kafkainfra.NewProgressProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		sinks = append(sinks, producer)
	}
	progress := messaging.NewFanout(zapLogger, sinks...)

	// Engine
	executor := application.NewLookupExecutor(cfg.Portal, solver, captcha.Normalize, zapLogger)
	runner := application.NewRetryRunner(factory, executor, cfg.Portal.MaxRetries, cfg.Portal.RetryBackoff, zapLogger)
	limiter := application.NewLimiter(cfg.Portal.Concurrency)
	orchestrator := application.NewOrchestrator(
		source, runner, limiter, progress,
		excel.NewWriter(), store, runRepo, cacheOrNil(cache), zapLogger,
	)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	runHandler := handlers.NewRunHandler(orchestrator, hub, store, runRepo)
	runHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Infof(ctx, "[Server] listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zapLogger.Infof(ctx, "[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Errorf(ctx, "[Server] shutdown failed: %v", err)
	}
}

func initSource(ctx context.Context, cfg *config.Config, lg logger.Logger) domain.RequestSource {
	switch cfg.Source.Kind {
	case "csv":
		return csvfile.NewSource(cfg.Source.CSV.Path)
	default:
		source, err := sheets.NewSource(ctx,
			cfg.Source.Sheets.CredentialsFile,
			cfg.Source.Sheets.SpreadsheetID,
			cfg.Source.Sheets.ReadRange,
			lg,
		)
		if err != nil {
			log.Fatalf("Failed to create sheets source: %v", err)
		}
		return source
	}
}

func initStore(cfg *config.Config, lg logger.Logger) domain.ArtifactStore {
	if cfg.Storage.Kind == "minio" {
		store, err := miniostore.NewArtifactStore(
			cfg.Storage.MinIO.Endpoint,
			cfg.Storage.MinIO.Bucket,
			cfg.Storage.MinIO.AccessKey,
			cfg.Storage.MinIO.SecretKey,
			cfg.Storage.MinIO.UseSSL,
			lg,
		)
		if err != nil {
			log.Fatalf("Failed to create MinIO store: %v", err)
		}
		return store
	}
	store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Fatalf("Failed to create local store: %v", err)
	}
	return store
}

// initPostgres is optional: an empty host disables run history.
func initPostgres(cfg *config.Config, lg logger.Logger) (domain.RunRepository, *sql.DB) {
	if cfg.Postgres.Host == "" {
		return nil, nil
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	lg.Infof(context.Background(), "[PostgreSQL] connected to %s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	return postgres.NewPostgresRunRepository(db), db
}

// initRedis is optional: disabled means no result cache.
func initRedis(ctx context.Context, cfg *config.Config, lg logger.Logger) *redisinfra.ResultCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	cache, err := redisinfra.NewResultCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, lg)
	if err != nil {
		log.Fatalf("Failed to create Redis cache: %v", err)
	}
	return cache
}

// cacheOrNil keeps a typed nil pointer from masquerading as a non-nil
// interface inside the orchestrator.
func cacheOrNil(cache *redisinfra.ResultCache) application.ResultCache {
	if cache == nil {
		return nil
	}
	return cache
}
