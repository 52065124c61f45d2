package scheduling

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/terapiaconect/platform/pkg/logging"
)

func newVelocity(t *testing.T, cfg VelocityConfig) (*VelocityChecker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVelocityChecker(client, cfg, logging.Default()), mr
}

func TestVelocityAllowsUpToLimit(t *testing.T) {
	v, _ := newVelocity(t, VelocityConfig{MaxBookingsPerClient: 2, WindowHours: 24, Enabled: true})

	for i := 0; i < 2; i++ {
		result, err := v.Check(context.Background(), "c-1")
		if err != nil {
			t.Fatalf("Check returned error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	result, err := v.Check(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if result.Allowed {
		t.Fatal("third attempt should be blocked")
	}
	if result.CurrentCount != 3 {
		t.Fatalf("count = %d, want 3", result.CurrentCount)
	}
}

func TestVelocityKeysAreScopedPerClient(t *testing.T) {
	v, _ := newVelocity(t, VelocityConfig{MaxBookingsPerClient: 1, WindowHours: 24, Enabled: true})

	if result, _ := v.Check(context.Background(), "c-1"); !result.Allowed {
		t.Fatal("first client first attempt should pass")
	}
	if result, _ := v.Check(context.Background(), "c-2"); !result.Allowed {
		t.Fatal("second client is an independent counter")
	}
}

func TestVelocityFailsOpenWhenRedisDown(t *testing.T) {
	v, mr := newVelocity(t, VelocityConfig{MaxBookingsPerClient: 1, WindowHours: 24, Enabled: true})
	mr.Close()

	result, err := v.Check(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatal("velocity must fail open when Redis is unavailable")
	}
}

func TestVelocityDisabled(t *testing.T) {
	v, _ := newVelocity(t, VelocityConfig{MaxBookingsPerClient: 0, WindowHours: 24, Enabled: false})

	result, err := v.Check(context.Background(), "c-1")
	if err != nil || !result.Allowed {
		t.Fatalf("disabled checker must allow, got %v %v", result.Allowed, err)
	}
}

func TestVelocityReset(t *testing.T) {
	v, _ := newVelocity(t, VelocityConfig{MaxBookingsPerClient: 1, WindowHours: 24, Enabled: true})

	_, _ = v.Check(context.Background(), "c-1")
	if result, _ := v.Check(context.Background(), "c-1"); result.Allowed {
		t.Fatal("second attempt should be blocked")
	}

	if err := v.Reset(context.Background(), "c-1"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if result, _ := v.Check(context.Background(), "c-1"); !result.Allowed {
		t.Fatal("attempt after reset should pass")
	}
}
