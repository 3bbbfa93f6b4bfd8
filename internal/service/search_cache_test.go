package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestInMemorySearchCache(t *testing.T) {
	store := NewInMemorySearchCacheStore()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "ns", "towel"); err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "ns", "towel", []byte(`["a"]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, ok, err := store.Get(ctx, "ns", "towel")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(payload) != `["a"]` {
		t.Fatalf("payload mismatch: %s", payload)
	}

	// Zero ttl writes are dropped.
	if err := store.Set(ctx, "ns", "skip", []byte("x"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "ns", "skip"); ok {
		t.Fatal("zero ttl entry was stored")
	}

	if err := store.Invalidate(ctx, "ns"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "ns", "towel"); ok {
		t.Fatal("entry survived invalidation")
	}
}

func TestRedisSearchCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSearchCacheStore(client, "search_cache")
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "ns", "towel"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "ns", "towel", []byte(`["a"]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "ns", "soap", []byte(`["b"]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	payload, ok, err := store.Get(ctx, "ns", "towel")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(payload) != `["a"]` {
		t.Fatalf("payload mismatch: %s", payload)
	}

	if err := store.Invalidate(ctx, "ns"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, key := range []string{"towel", "soap"} {
		if _, ok, _ := store.Get(ctx, "ns", key); ok {
			t.Fatalf("entry %q survived invalidation", key)
		}
	}
}

func TestRedisSearchCacheEntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSearchCacheStore(client, "search_cache")
	ctx := context.Background()

	if err := store.Set(ctx, "ns", "towel", []byte("x"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, ok, _ := store.Get(ctx, "ns", "towel"); ok {
		t.Fatal("entry survived its ttl")
	}
}
