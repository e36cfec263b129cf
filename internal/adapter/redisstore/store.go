// Package redisstore shares catalog snapshots between service instances so a
// fleet refreshing together hits the inventory feed once.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
)

const snapshotKey = "dupcheck:catalog:snapshot:v1"

// Store is a catalog.SnapshotStore backed by a single Redis key.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL. Stored snapshots expire after ttl.
// URL format: redis://localhost:6379/0
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Load returns the stored snapshot, or nil when none is stored.
func (s *Store) Load(ctx context.Context) (*catalog.Stored, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get snapshot: %w", err)
	}
	return decode(data)
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, st catalog.Stored) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*catalog.Stored, error) {
	var st catalog.Stored
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	if st.CapturedAt.IsZero() {
		return nil, errors.New("redis: snapshot has no capture time")
	}
	return &st, nil
}
