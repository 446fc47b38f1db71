package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemory_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	m := NewMemory(clock)
	ctx := context.Background()

	if err := m.Set(ctx, "realtime2", "<html>", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := m.Get(ctx, "realtime2")
	if err != nil || !ok || got != "<html>" {
		t.Fatalf("Get() = %q, %v, %v, want <html>, true, nil", got, ok, err)
	}

	clock.Advance(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "realtime2"); ok {
		t.Error("Get() after ttl should miss")
	}
}

func TestMemory_NoTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewMemory(clock)
	ctx := context.Background()

	_ = m.Set(ctx, "k", "v", 0)
	clock.Advance(24 * time.Hour)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Error("entry without ttl should not expire")
	}
	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Error("Get() of unknown key should miss")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	r := NewRedis(addr, os.Getenv("REDIS_PASSWORD"), 0, "buoy-terminal-test:")
	defer r.Close()
	ctx := context.Background()
	if err := r.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	if err := r.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := r.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Errorf("Get() = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := r.Get(ctx, "absent"); ok {
		t.Error("Get() of absent key should miss")
	}
}
