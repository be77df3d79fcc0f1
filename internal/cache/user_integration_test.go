//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exerlog/exerlog/internal/model"
	"github.com/exerlog/exerlog/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL, time.Minute)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationCache_UserRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := &model.User{
		ID:       "u1",
		Username: "alice",
		Count:    1,
		Log: []model.Exercise{
			{Description: "run", Duration: 30, Date: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		},
	}

	if _, err := c.GetUser(ctx, user.ID); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss before set, got %v", err)
	}

	if err := c.SetUser(ctx, user); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	got, err := c.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" || got.Count != 1 || len(got.Log) != 1 {
		t.Errorf("unexpected cached user: %+v", got)
	}
	if !got.Log[0].Date.Equal(user.Log[0].Date) {
		t.Errorf("Date = %v, want %v", got.Log[0].Date, user.Log[0].Date)
	}

	ttl, err := c.Client().TTL(ctx, userKey(user.ID)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want (0, 1m]", ttl)
	}

	if err := c.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := c.GetUser(ctx, user.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestIntegrationCache_NegativeEntry(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if err := c.SetNegativeCache(ctx, "ghost"); err != nil {
		t.Fatalf("SetNegativeCache: %v", err)
	}

	neg, err := c.IsNegativelyCached(ctx, "ghost")
	if err != nil {
		t.Fatalf("IsNegativelyCached: %v", err)
	}
	if !neg {
		t.Error("expected id to be negatively cached")
	}

	// Caching a real record clears the negative entry.
	if err := c.SetUser(ctx, &model.User{ID: "ghost", Username: "late"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	neg, err = c.IsNegativelyCached(ctx, "ghost")
	if err != nil {
		t.Fatalf("IsNegativelyCached: %v", err)
	}
	if neg {
		t.Error("negative entry should be cleared by SetUser")
	}
}

func TestIntegrationCache_CorruptEntryIsMiss(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if err := c.Client().Set(ctx, userKey("bad"), "{not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, err := c.GetUser(ctx, "bad"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss for corrupt entry, got %v", err)
	}

	if n, _ := c.Client().Exists(ctx, userKey("bad")).Result(); n != 0 {
		t.Error("corrupt entry should be deleted")
	}
}

func TestIntegrationCache_IPRateLimit(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	const burst = 3
	for i := 0; i < burst; i++ {
		res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
		if err != nil {
			t.Fatalf("CheckIPRateLimit: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit: %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
}
