package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions as JSON values whose TTL matches the session
// expiry, so Redis drops stale sessions by itself.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore connects to the Redis instance at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load returns the session with the given id.
func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeRecord(data)
}

// Save stores rec until its expiry.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, rec.ID)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+rec.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("corrupt session record: %w", err)
	}
	if rec.ID == "" {
		return Record{}, errors.New("corrupt session record: missing id")
	}
	return rec, nil
}
