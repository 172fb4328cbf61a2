package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	store := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: s.Addr()}),
		Ctx:    context.Background(),
	}
	t.Cleanup(store.Close)
	return s, store
}

func TestPublishAdChange(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	sub := store.Client.Subscribe(ctx, AdUpdateChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := store.PublishAdChange(ctx, "A1", models.OutcomeUpdated); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var um UpdateMessage
		if err := json.Unmarshal([]byte(msg.Payload), &um); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if um.AdID != "A1" || um.Outcome != models.OutcomeUpdated {
			t.Fatalf("unexpected message %+v", um)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestImportLock(t *testing.T) {
	s, store := setupTestRedis(t)
	ctx := context.Background()

	lock, err := store.AcquireImportLock(ctx, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := store.AcquireImportLock(ctx, time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	second, err := store.AcquireImportLock(ctx, time.Minute)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}

	// a stale holder must not free someone else's lock
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !s.Exists(importLockKey) {
		t.Fatal("stale release removed the active lock")
	}
	_ = second.Release(ctx)
}

func TestImportLock_Expires(t *testing.T) {
	s, store := setupTestRedis(t)
	ctx := context.Background()

	if _, err := store.AcquireImportLock(ctx, 10*time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	s.FastForward(11 * time.Second)
	if _, err := store.AcquireImportLock(ctx, 10*time.Second); err != nil {
		t.Fatalf("expected lock to expire, got %v", err)
	}
}
