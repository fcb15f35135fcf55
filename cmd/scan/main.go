package main

import (
	"context"
	"flag"
	"log"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/browser"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/captcha"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/csvfile"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/excel"
	"github.com/jvasquez2828/robot-runt-web/internal/infrastructure/storage"
	"github.com/jvasquez2828/robot-runt-web/internal/messaging"
	"github.com/jvasquez2828/robot-runt-web/pkg/config"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// scan runs one batch synchronously from a CSV file and writes the xlsx
// report locally. No server, no Google credentials, no optional backends.
var (
	configPath = flag.String("config", "", "path to the YAML config file (optional, env vars override)")
	csvPath    = flag.String("csv", "", "input CSV with columns [placa, numero_documento] (overrides source config)")
	outDir     = flag.String("out", "", "output directory for the report (overrides storage config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *csvPath != "" {
		cfg.Source.Kind = "csv"
		cfg.Source.CSV.Path = *csvPath
	}
	if *outDir != "" {
		cfg.Storage.Kind = "local"
		cfg.Storage.LocalDir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	if cfg.Source.Kind != "csv" {
		log.Fatalf("scan only supports the csv source, pass -csv")
	}

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	factory, err := browser.NewFactory(cfg.Portal, zapLogger)
	if err != nil {
		log.Fatalf("Failed to launch browser: %v", err)
	}
	defer factory.Close()

	store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Fatalf("Failed to create local store: %v", err)
	}

	solver := captcha.NewTwoCaptchaSolver(cfg.Captcha.APIKey, cfg.Captcha.Timeout, zapLogger)
	executor := application.NewLookupExecutor(cfg.Portal, solver, captcha.Normalize, zapLogger)
	runner := application.NewRetryRunner(factory, executor, cfg.Portal.MaxRetries, cfg.Portal.RetryBackoff, zapLogger)
	limiter := application.NewLimiter(cfg.Portal.Concurrency)
	progress := messaging.NewLogPublisher(zapLogger)

	orchestrator := application.NewOrchestrator(
		csvfile.NewSource(cfg.Source.CSV.Path), runner, limiter, progress,
		excel.NewWriter(), store, nil, nil, zapLogger,
	)

	run, err := orchestrator.RunOnce(context.Background())
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	if run.Status != domain.RunStatusCompleted {
		log.Fatalf("Run ended in status %s: %s", run.Status, run.ErrorMessage)
	}
	log.Printf("Report written: %s/%s (%d ok, %d failed)",
		cfg.Storage.LocalDir, run.ArtifactRef,
		run.CompletedRequests-run.FailedRequests, run.FailedRequests)
}
