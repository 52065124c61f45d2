package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Auth
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	BcryptCost  int
	AdminSecret string

	// Booking
	BookingTimezone    string
	BookingRatePerMin  int
	BookingRateBurst   int
	MaxBookingsPerDay  int
	BookingWindowHours int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Token usage ledger
	UsageLogPath     string
	PricingPath      string
	DefaultModelTier string
	SavingsBaseline  string
	SavingsModel     string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	WhisperModel  string
	AITimeout     time.Duration

	// Video providers
	VideoProvider   string
	DyteAPIKey      string
	DyteOrgID       string
	DyteBaseURL     string
	DailyAPIKey     string
	DailyBaseURL    string
	DailyDomain     string
	JitsiAppID      string
	JitsiAppSecret  string
	JitsiDomain     string
	JoinTokenExpiry time.Duration

	// Recordings / transcription
	UseMemoryQueue        bool
	WorkerCount           int
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	RecordingsBucket      string
	TranscriptionQueueURL string
	MediaDir              string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "terapiaconect"),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost:  getEnvAsInt("BCRYPT_COST", 10),
		AdminSecret: getEnv("ADMIN_JWT_SECRET", ""),

		BookingTimezone:    getEnv("BOOKING_TIMEZONE", "America/Sao_Paulo"),
		BookingRatePerMin:  getEnvAsInt("BOOKING_RATE_PER_MIN", 30),
		BookingRateBurst:   getEnvAsInt("BOOKING_RATE_BURST", 10),
		MaxBookingsPerDay:  getEnvAsInt("MAX_BOOKINGS_PER_DAY", 5),
		BookingWindowHours: getEnvAsInt("BOOKING_WINDOW_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		UsageLogPath:     getEnv("TOKEN_USAGE_LOG_PATH", "data/token-usage-log.json"),
		PricingPath:      getEnv("MODEL_PRICING_PATH", "config/model-pricing.json"),
		DefaultModelTier: getEnv("DEFAULT_MODEL_TIER", "gpt-4o-mini"),
		SavingsBaseline:  getEnv("SAVINGS_BASELINE_MODEL", "gpt-4o"),
		SavingsModel:     getEnv("SAVINGS_MODEL", "gpt-4o-mini"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		WhisperModel:  getEnv("WHISPER_MODEL", "whisper-1"),
		AITimeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),

		VideoProvider:   strings.ToLower(strings.TrimSpace(getEnv("VIDEO_PROVIDER", "daily"))),
		DyteAPIKey:      getEnv("DYTE_API_KEY", ""),
		DyteOrgID:       getEnv("DYTE_ORG_ID", ""),
		DyteBaseURL:     getEnv("DYTE_BASE_URL", "https://api.dyte.io/v2"),
		DailyAPIKey:     getEnv("DAILY_API_KEY", ""),
		DailyBaseURL:    getEnv("DAILY_BASE_URL", "https://api.daily.co/v1"),
		DailyDomain:     getEnv("DAILY_DOMAIN", ""),
		JitsiAppID:      getEnv("JITSI_APP_ID", ""),
		JitsiAppSecret:  getEnv("JITSI_APP_SECRET", ""),
		JitsiDomain:     getEnv("JITSI_DOMAIN", "meet.jit.si"),
		JoinTokenExpiry: getEnvAsDuration("JOIN_TOKEN_EXPIRY", 2*time.Hour),

		UseMemoryQueue:        getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:           getEnvAsInt("WORKER_COUNT", 2),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		RecordingsBucket:      getEnv("RECORDINGS_BUCKET", ""),
		TranscriptionQueueURL: getEnv("TRANSCRIPTION_QUEUE_URL", ""),
		MediaDir:              getEnv("MEDIA_DIR", "data/media"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "TerapiaConect"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
