package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wizardguard/internal/domain"
)

// RedisFingerprintStore implements FingerprintStore on Redis, for
// deployments that want the device-fingerprint cache shared across server
// instances. Records are stored as JSON under a key prefix.
type RedisFingerprintStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ FingerprintStore = (*RedisFingerprintStore)(nil)

// RedisConfig contains connection options for the Redis backend.
type RedisConfig struct {
	// Addr is the Redis server address, e.g. "localhost:6379".
	Addr string

	// Password is the Redis password (empty for no auth).
	Password string

	// DB is the Redis database number.
	DB int

	// KeyPrefix is prepended to all keys. Default: "wizardguard:device:".
	KeyPrefix string

	// TTL is the record retention. Zero means keep forever.
	TTL time.Duration
}

// NewRedisFingerprintStore connects to Redis and verifies the connection.
func NewRedisFingerprintStore(cfg RedisConfig) (*RedisFingerprintStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "wizardguard:device:"
	}

	return &RedisFingerprintStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Save overwrites the record for its device id.
func (s *RedisFingerprintStore) Save(ctx context.Context, rec *domain.DeviceRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encode fingerprint: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+rec.DeviceID, buf, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set key: %w", err)
	}
	return nil
}

// Get returns the record or ErrNotFound.
func (s *RedisFingerprintStore) Get(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	buf, err := s.client.Get(ctx, s.prefix+deviceID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get key: %w", err)
	}
	var rec domain.DeviceRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("redis: decode fingerprint: %w", err)
	}
	return &rec, nil
}

// Close releases the underlying client.
func (s *RedisFingerprintStore) Close() error {
	return s.client.Close()
}
