package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/terapiaconect/platform/cmd/mainconfig"
	"github.com/terapiaconect/platform/internal/app/bootstrap"
	appconfig "github.com/terapiaconect/platform/internal/config"
	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/worker/transcription"
	"github.com/terapiaconect/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue {
		logger.Error("transcription worker requires SQS; with USE_MEMORY_QUEUE the API process transcribes inline")
		os.Exit(1)
	}
	if cfg.TranscriptionQueueURL == "" {
		logger.Error("TRANSCRIPTION_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	aiClient, err := bootstrap.BuildOpenAIClient(cfg, logger)
	if err != nil {
		logger.Error("failed to build OpenAI client", "error", err)
		os.Exit(1)
	}
	if aiClient == nil {
		logger.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}

	ledger, err := bootstrap.BuildLedger(cfg, metrics.NewAIMetrics(nil), logger)
	if err != nil {
		logger.Error("failed to build token ledger", "error", err)
		os.Exit(1)
	}

	queue := bootstrap.BuildTranscriptionQueue(cfg, awsConfig, logger)
	media := bootstrap.BuildMediaStore(cfg, awsConfig, logger)
	repo := recordings.NewRepository(pool)

	worker := transcription.NewWorker(queue, media, repo, aiClient, ledger, transcription.Config{
		Workers:      cfg.WorkerCount,
		WhisperModel: cfg.WhisperModel,
	}, logger)

	worker.Start(ctx)
	logger.Info("transcription worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down transcription worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("transcription worker stopped")
	case <-doneCtx.Done():
		logger.Error("transcription worker shutdown timed out", "error", doneCtx.Err())
	}
}
