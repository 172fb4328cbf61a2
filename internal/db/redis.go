package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// AdUpdateChannel carries one message per committed ad.
const AdUpdateChannel = "ad-updates"

// importLockKey guards a whole import run across processes.
const importLockKey = "adsync:import-lock"

// ErrLockHeld is returned when another process holds the import lock.
var ErrLockHeld = errors.New("import lock held by another process")

// UpdateMessage is the payload published on AdUpdateChannel.
type UpdateMessage struct {
	AdID    string               `json:"ad_id"`
	Outcome models.ImportOutcome `json:"outcome"`
	At      time.Time            `json:"at"`
}

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// PublishAdChange announces that adID was inserted or updated.
func (r *RedisStore) PublishAdChange(ctx context.Context, adID string, outcome models.ImportOutcome) error {
	payload, err := json.Marshal(UpdateMessage{AdID: adID, Outcome: outcome, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal update message: %w", err)
	}
	if err := r.Client.Publish(ctx, AdUpdateChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish update message: %w", err)
	}
	return nil
}

// ImportLock is a held import lock.
type ImportLock struct {
	store *RedisStore
	token string
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireImportLock takes the run lock for ttl. It returns ErrLockHeld when
// another holder has it.
func (r *RedisStore) AcquireImportLock(ctx context.Context, ttl time.Duration) (*ImportLock, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, importLockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &ImportLock{store: r, token: token}, nil
}

// Release frees the lock if this holder still owns it.
func (l *ImportLock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, l.store.Client, []string{importLockKey}, l.token).Err(); err != nil {
		return fmt.Errorf("release import lock: %w", err)
	}
	return nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
