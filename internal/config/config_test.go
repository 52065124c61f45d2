package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BookingTimezone != "America/Sao_Paulo" {
		t.Errorf("BookingTimezone = %q, want America/Sao_Paulo", cfg.BookingTimezone)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s, want 24h", cfg.TokenTTL)
	}
	if cfg.DefaultModelTier != "gpt-4o-mini" {
		t.Errorf("DefaultModelTier = %q", cfg.DefaultModelTier)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_BOOKINGS_PER_DAY", "2")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("AI_TIMEOUT", "90s")
	t.Setenv("VIDEO_PROVIDER", " Jitsi ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.terapiaconect.com, https://staging.terapiaconect.com,")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.MaxBookingsPerDay != 2 {
		t.Errorf("MaxBookingsPerDay = %d, want 2", cfg.MaxBookingsPerDay)
	}
	if !cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue = false, want true")
	}
	if cfg.AITimeout != 90*time.Second {
		t.Errorf("AITimeout = %s, want 90s", cfg.AITimeout)
	}
	if cfg.VideoProvider != "jitsi" {
		t.Errorf("VideoProvider = %q, want jitsi", cfg.VideoProvider)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidNumericFallsBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "lots")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want default 2", cfg.WorkerCount)
	}
}
