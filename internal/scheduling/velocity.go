package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terapiaconect/platform/pkg/logging"
)

// VelocityChecker rate-limits booking attempts per client to keep one client
// from hammering a therapist's agenda.
type VelocityChecker struct {
	redis  *redis.Client
	logger *logging.Logger
	config VelocityConfig
}

// VelocityConfig contains booking velocity limits.
type VelocityConfig struct {
	MaxBookingsPerClient int
	WindowHours          int
	Enabled              bool
}

// DefaultVelocityConfig returns default booking velocity limits.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		MaxBookingsPerClient: 5,
		WindowHours:          24,
		Enabled:              true,
	}
}

// VelocityResult contains the result of a velocity check.
type VelocityResult struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
}

// NewVelocityChecker creates a booking velocity checker.
func NewVelocityChecker(redisClient *redis.Client, config VelocityConfig, logger *logging.Logger) *VelocityChecker {
	if logger == nil {
		logger = logging.Default()
	}
	return &VelocityChecker{
		redis:  redisClient,
		logger: logger,
		config: config,
	}
}

// Check increments the client's attempt counter and reports whether the
// attempt is allowed. Fails open when Redis is unavailable: losing velocity
// enforcement is preferable to refusing every booking.
func (v *VelocityChecker) Check(ctx context.Context, clientID string) (*VelocityResult, error) {
	if v == nil || v.redis == nil || !v.config.Enabled {
		return &VelocityResult{Allowed: true}, nil
	}

	key := fmt.Sprintf("velocity:booking:%s", clientID)
	window := time.Duration(v.config.WindowHours) * time.Hour

	count, expiry, err := v.incrementAndGet(ctx, key, window)
	if err != nil {
		v.logger.Error("booking velocity check failed", "error", err, "key", key)
		return &VelocityResult{Allowed: true}, nil
	}

	result := &VelocityResult{
		Allowed:      count <= v.config.MaxBookingsPerClient,
		CurrentCount: count,
		MaxAllowed:   v.config.MaxBookingsPerClient,
		WindowExpiry: expiry,
	}

	if !result.Allowed {
		v.logger.Warn("booking velocity exceeded",
			"client_id", clientID,
			"count", count,
			"max", v.config.MaxBookingsPerClient,
		)
	}
	return result, nil
}

// Reset clears the counter for a client (admin use).
func (v *VelocityChecker) Reset(ctx context.Context, clientID string) error {
	if v == nil || v.redis == nil {
		return nil
	}
	return v.redis.Del(ctx, fmt.Sprintf("velocity:booking:%s", clientID)).Err()
}

// incrementAndGet increments a counter and returns the new value with expiry time.
func (v *VelocityChecker) incrementAndGet(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := v.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	// Set expiry only on first increment
	if count == 1 {
		v.redis.Expire(ctx, key, window)
	}

	ttl, err := v.redis.TTL(ctx, key).Result()
	if err != nil {
		ttl = window
	}
	return int(count), time.Now().Add(ttl), nil
}
