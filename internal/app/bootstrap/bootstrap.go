// Package bootstrap wires shared infrastructure for the API and worker
// binaries so both processes build their collaborators the same way.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/terapiaconect/platform/internal/ai"
	appconfig "github.com/terapiaconect/platform/internal/config"
	"github.com/terapiaconect/platform/internal/notify"
	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/sessions"
	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/internal/video"
	"github.com/terapiaconect/platform/pkg/logging"
)

// BuildRedisClient connects to redis, or returns nil when redis is not
// configured or (with verify) not reachable. Callers treat nil as "feature
// degraded", not as an error.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildTranscriptionQueue selects the transcription job queue: SQS when a
// queue URL is configured, the in-memory queue for local development.
func BuildTranscriptionQueue(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) recordings.Queue {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryQueue || strings.TrimSpace(cfg.TranscriptionQueueURL) == "" {
		logger.Info("using in-memory transcription queue")
		return recordings.NewMemoryQueue(128)
	}
	return recordings.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.TranscriptionQueueURL)
}

// BuildMediaStore wires the S3-backed recording media store, falling back to
// local disk when no bucket is configured.
func BuildMediaStore(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) recordings.BlobStore {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.RecordingsBucket) == "" {
		logger.Info("storing recording media on disk", "dir", cfg.MediaDir)
		return recordings.NewDiskStore(cfg.MediaDir)
	}
	return recordings.NewObjectStore(s3.NewFromConfig(awsCfg), cfg.RecordingsBucket)
}

// BuildLedger assembles the token usage ledger from the configured pricing
// file and persistence path.
func BuildLedger(cfg *appconfig.Config, aiMetrics *metrics.AIMetrics, logger *logging.Logger) (*tokenledger.Ledger, error) {
	prices, err := tokenledger.LoadPriceTable(cfg.PricingPath)
	if err != nil {
		return nil, err
	}
	if tier := strings.TrimSpace(cfg.DefaultModelTier); tier != "" {
		if _, ok := prices.Models[tier]; ok {
			prices.DefaultModel = tier
		} else if logger != nil {
			logger.Warn("configured default model tier not in price table", "model", tier)
		}
	}
	estimator := tokenledger.NewEstimator(nil, aiMetrics, logger)
	var store tokenledger.Store
	if strings.TrimSpace(cfg.UsageLogPath) != "" {
		store = tokenledger.NewFileStore(cfg.UsageLogPath)
	}
	return tokenledger.NewLedger(store, prices, estimator, aiMetrics, logger), nil
}

// BuildVideoProvider selects the conferencing vendor from config.
func BuildVideoProvider(cfg *appconfig.Config) (video.Provider, error) {
	return video.NewProvider(video.ProviderConfig{
		Provider:        cfg.VideoProvider,
		DyteAPIKey:      cfg.DyteAPIKey,
		DyteOrgID:       cfg.DyteOrgID,
		DyteBaseURL:     cfg.DyteBaseURL,
		DailyAPIKey:     cfg.DailyAPIKey,
		DailyBaseURL:    cfg.DailyBaseURL,
		DailyDomain:     cfg.DailyDomain,
		JitsiAppID:      cfg.JitsiAppID,
		JitsiAppSecret:  cfg.JitsiAppSecret,
		JitsiDomain:     cfg.JitsiDomain,
		JoinTokenExpiry: cfg.JoinTokenExpiry,
	})
}

// BuildEmailSender wires SendGrid when configured, the logging stub
// otherwise.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
		logger.Info("sendgrid email sender initialized")
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	logger.Warn("email notifications disabled (SENDGRID_API_KEY or SENDGRID_FROM_EMAIL not set)")
	return notify.NewStubEmailSender(logger)
}

// BuildOpenAIClient wires the OpenAI REST client, or nil when no API key is
// configured.
func BuildOpenAIClient(cfg *appconfig.Config, logger *logging.Logger) (*ai.Client, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, nil
	}
	return ai.NewClient(ai.ClientConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.AITimeout,
		Logger:  logger,
	})
}

// transcriptFinder adapts the recordings repository to the sessions insights
// path, translating its not-found sentinel.
type transcriptFinder struct {
	repo *recordings.Repository
}

// NewTranscriptFinder wraps a recordings repository for the sessions service.
func NewTranscriptFinder(repo *recordings.Repository) sessions.TranscriptFinder {
	return &transcriptFinder{repo: repo}
}

func (f *transcriptFinder) LatestBySession(ctx context.Context, sessionID string) (string, error) {
	text, err := f.repo.LatestBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, recordings.ErrTranscriptNotFound) {
			return "", sessions.ErrNoTranscript
		}
		return "", err
	}
	return text, nil
}
