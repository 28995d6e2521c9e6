package redis

import (
	"context"
	"testing"
	"time"

	"github.com/AmbitionsXXXV/quant/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()

	cfg := &config.Config{}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestDisabledClient(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("expected disabled client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on disabled client: %v", err)
	}
}

func TestCacheNoOpWhenDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Errorf("Set must no-op when disabled: %v", err)
	}

	var dest map[string]int
	ok, err := cache.Get(ctx, "k", &dest)
	if err != nil {
		t.Errorf("Get must no-op when disabled: %v", err)
	}
	if ok {
		t.Error("disabled cache must always miss")
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete must no-op when disabled: %v", err)
	}
}

func TestRateLimiterAllowsWhenDisabled(t *testing.T) {
	rl := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := rl.Allow(context.Background(), RateLimitConfig{
		Key:    "provider",
		Limit:  5,
		Window: time.Second,
	})
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !allowed {
		t.Error("disabled limiter must allow everything")
	}
	if remaining != 5 {
		t.Errorf("expected full budget, got %d", remaining)
	}
}

func TestSeriesKey(t *testing.T) {
	if got := SeriesKey("AAPL", "d365"); got != "series:AAPL:d365" {
		t.Errorf("unexpected series key: %s", got)
	}
}

// Integration tests against a live Redis. Run with a local instance:
//
//	REDIS_ENABLED=true go test ./pkg/redis/...
func TestCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil || !cfg.Redis.Enabled {
		t.Skip("redis not configured")
	}

	client, err := New(cfg)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "test")
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	want := payload{Name: "series", Count: 3}
	if err := cache.Set(ctx, "roundtrip", want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	defer cache.Delete(ctx, "roundtrip")

	var got payload
	ok, err := cache.Get(ctx, "roundtrip", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
