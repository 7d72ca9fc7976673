package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/datewheel/repository"
)

type kvStore struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewKVStore creates a Redis-backed document store. Keys are written as prefix:key.
// A zero ttl keeps documents forever.
func NewKVStore(client *redislib.Client, prefix string, ttl time.Duration) repository.KVStore {
	if prefix == "" {
		prefix = "datewheel"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &kvStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *kvStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	result, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(result), true, nil
}

func (s *kvStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	return s.client.Set(ctx, s.key(key), []byte(value), s.ttl).Err()
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *kvStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
