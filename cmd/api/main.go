package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terapiaconect/platform/cmd/mainconfig"
	"github.com/terapiaconect/platform/internal/accounts"
	"github.com/terapiaconect/platform/internal/ai"
	"github.com/terapiaconect/platform/internal/api/router"
	"github.com/terapiaconect/platform/internal/app/bootstrap"
	"github.com/terapiaconect/platform/internal/availability"
	appconfig "github.com/terapiaconect/platform/internal/config"
	"github.com/terapiaconect/platform/internal/notify"
	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/scheduling"
	"github.com/terapiaconect/platform/internal/sessions"
	"github.com/terapiaconect/platform/internal/therapists"
	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/internal/worker/transcription"
	"github.com/terapiaconect/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting terapiaconect API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	location, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		logger.Error("invalid booking timezone", "timezone", cfg.BookingTimezone, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	aiMetrics := metrics.NewAIMetrics(registry)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledger, err := bootstrap.BuildLedger(cfg, aiMetrics, logger)
	if err != nil {
		logger.Error("failed to build token ledger", "error", err)
		os.Exit(1)
	}

	videoProvider, err := bootstrap.BuildVideoProvider(cfg)
	if err != nil {
		logger.Error("failed to build video provider", "error", err)
		os.Exit(1)
	}
	logger.Info("video provider ready", "provider", videoProvider.Name())

	aiClient, err := bootstrap.BuildOpenAIClient(cfg, logger)
	if err != nil {
		logger.Error("failed to build OpenAI client", "error", err)
		os.Exit(1)
	}

	// Repositories
	accountsRepo := accounts.NewRepository(pool)
	therapistsRepo := therapists.NewRepository(pool)
	availabilityRepo := availability.NewRepository(pool)
	schedulingRepo := scheduling.NewRepository(pool)
	sessionsRepo := sessions.NewRepository(pool)
	recordingsRepo := recordings.NewRepository(pool)

	// Services
	accountsService := accounts.NewService(accountsRepo, accounts.ServiceConfig{
		JWTSecret:   cfg.JWTSecret,
		Issuer:      cfg.JWTIssuer,
		TokenTTL:    cfg.TokenTTL,
		BcryptCost:  cfg.BcryptCost,
		AdminSecret: cfg.AdminSecret,
		Profiles:    therapistsRepo,
	}, logger)

	velocity := scheduling.NewVelocityChecker(redisClient, scheduling.VelocityConfig{
		MaxBookingsPerClient: cfg.MaxBookingsPerDay,
		WindowHours:          cfg.BookingWindowHours,
		Enabled:              redisClient != nil,
	}, logger)

	notifier := notify.NewService(bootstrap.BuildEmailSender(cfg, logger), accountsRepo, location, logger)

	schedulingService, err := scheduling.NewService(scheduling.ServiceConfig{
		Repository:   schedulingRepo,
		Therapists:   therapistsRepo,
		Availability: availabilityRepo,
		Velocity:     velocity,
		Notifier:     notifier,
		Metrics:      bookingMetrics,
		Logger:       logger,
		Timezone:     cfg.BookingTimezone,
	})
	if err != nil {
		logger.Error("failed to build scheduling service", "error", err)
		os.Exit(1)
	}

	var insighter sessions.Insighter
	if aiClient != nil {
		insighter = ai.NewInsightsService(aiClient, ledger, cfg.OpenAIModel, logger)
	}
	sessionsService := sessions.NewService(
		sessionsRepo,
		schedulingRepo,
		videoProvider,
		bootstrap.NewTranscriptFinder(recordingsRepo),
		insighter,
		logger,
	)
	presenceHub := sessions.NewPresenceHub(sessionsService, logger)

	transcriptionQueue := bootstrap.BuildTranscriptionQueue(cfg, awsCfg, logger)
	mediaStore := bootstrap.BuildMediaStore(cfg, awsCfg, logger)
	recordingsService := recordings.NewService(recordingsRepo, mediaStore, transcriptionQueue, sessionsService, logger)

	// With the in-memory queue, transcription runs inside this process.
	if cfg.UseMemoryQueue {
		if aiClient == nil {
			logger.Warn("transcription disabled: in-memory queue configured without an OpenAI key")
		} else {
			worker := transcription.NewWorker(transcriptionQueue, mediaStore, recordingsRepo, aiClient, ledger, transcription.Config{
				Workers:      cfg.WorkerCount,
				WhisperModel: cfg.WhisperModel,
			}, logger)
			worker.Start(ctx)
			defer worker.Wait()
		}
	}

	// Handlers
	accountsHandler := accounts.NewHandler(accountsService, logger)
	therapistsHandler := therapists.NewHandler(therapistsRepo, logger)
	availabilityHandler := availability.NewHandler(availabilityRepo, logger)
	schedulingHandler := scheduling.NewHandler(schedulingService, logger)
	sessionsHandler := sessions.NewHandler(sessionsService, presenceHub, logger)
	recordingsHandler := recordings.NewHandler(recordingsService, logger)
	usageHandler := tokenledger.NewHandler(ledger, cfg.SavingsBaseline, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AccountsHandler:     accountsHandler,
		TherapistsHandler:   therapistsHandler,
		AvailabilityHandler: availabilityHandler,
		SchedulingHandler:   schedulingHandler,
		SessionsHandler:     sessionsHandler,
		PresenceHub:         presenceHub,
		RecordingsHandler:   recordingsHandler,
		UsageHandler:        usageHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWTSecret:           cfg.JWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthRatePerSec:      float64(cfg.BookingRatePerMin) / 60.0,
		AuthRateBurst:       cfg.BookingRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
