// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/constants"
)

// Store defines the persistence operations for published content.
type Store interface {
	// Get returns the entry under a key, or apperr.ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set publishes (or overwrites) the value under a key.
	Set(ctx context.Context, key string, value string) (*Entry, error)

	// ClearAll removes every published entry. Invoked during a portal reset.
	ClearAll(ctx context.Context) error
}

// scanBatchSize is the COUNT hint for SCAN during ClearAll.
const scanBatchSize = 100

// storedEntry is the JSON document persisted per key. The key itself lives
// in the Redis keyspace, not the document.
type storedEntry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore is the go-redis-backed implementation of [Store].
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store bound to a Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Content")
		}
		return nil, apperr.Internal(err)
	}

	var stored storedEntry
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, apperr.Internal(err)
	}

	return &Entry{Key: key, Value: stored.Value, UpdatedAt: stored.UpdatedAt}, nil
}

// Set implements [Store].
func (s *RedisStore) Set(ctx context.Context, key string, value string) (*Entry, error) {
	stored := storedEntry{Value: value, UpdatedAt: time.Now().UTC()}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// Content has no expiry: announcements stay up until replaced or reset.
	if err := s.client.Set(ctx, redisKey(key), raw, 0).Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return &Entry{Key: key, Value: stored.Value, UpdatedAt: stored.UpdatedAt}, nil
}

// ClearAll implements [Store]. It SCANs the content prefix and deletes in
// batches, never blocking Redis with a single huge KEYS sweep.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	var cursor uint64
	pattern := constants.RedisPrefixContent + "*"

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return apperr.Internal(err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return apperr.Internal(err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// redisKey namespaces a content key inside the shared Redis keyspace.
func redisKey(key string) string {
	return constants.RedisPrefixContent + key
}
