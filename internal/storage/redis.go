package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

// RedisStorage implements the Storage interface using Redis for session snapshots
// and a ScenarioLibrary for scenarios
type RedisStorage struct {
	*ScenarioLibrary
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewClient connects to a redis:// URL, or to a bare host:port address.
func NewClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return redis.NewClient(opts)
}

// NewRedisStorage creates a new Redis storage instance. Snapshots expire after ttl
// without an update.
func NewRedisStorage(client *redis.Client, lib *ScenarioLibrary, ttl time.Duration, logger *slog.Logger) *RedisStorage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisStorage{
		ScenarioLibrary: lib,
		client:          client,
		logger:          logger,
		ttl:             ttl,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(delay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", attempts)
}

// Snapshot operations (Redis-backed)

func snapshotKey(id uuid.UUID) string {
	return "snapshot:" + id.String()
}

func (r *RedisStorage) SaveSnapshot(ctx context.Context, snap *storage.Snapshot) error {
	snap.UpdatedAt = time.Now()

	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to marshal snapshot", "session_id", snap.SessionID, "error", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKey(snap.SessionID), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save snapshot", "session_id", snap.SessionID, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*storage.Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load snapshot", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Error("Failed to unmarshal snapshot", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, snapshotKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete snapshot", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
