package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "billing:subscription:"

// redisStore is a Redis-backed SubscriptionStore. Records are stored as JSON
// values keyed by account ID, with an optional TTL for cache-style setups.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a redis store.
type RedisStoreOption func(*redisStore)

// WithTTL sets an expiration on stored records. Zero (the default) keeps
// records until overwritten.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *redisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore returns a Redis-backed SubscriptionStore.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) SubscriptionStore {
	s := &redisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *redisStore) Get(ctx context.Context, accountID uuid.UUID) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+accountID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *redisStore) Save(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+record.AccountID.String(), data, s.ttl).Err()
}
