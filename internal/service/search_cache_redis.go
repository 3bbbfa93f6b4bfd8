package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSearchCacheStore keeps a per-namespace index set so invalidation can
// delete every cached key without a SCAN.
type RedisSearchCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSearchCacheStore(client redis.UniversalClient, prefix string) *RedisSearchCacheStore {
	if prefix == "" {
		prefix = "search_cache"
	}
	return &RedisSearchCacheStore{client: client, prefix: prefix}
}

func (s *RedisSearchCacheStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	value, err := s.client.Get(ctx, s.dataKey(namespace, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisSearchCacheStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	dataKey := s.dataKey(namespace, key)
	indexKey := s.indexKey(namespace)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dataKey, value, ttl)
	pipe.SAdd(ctx, indexKey, dataKey)
	pipe.Expire(ctx, indexKey, ttl+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSearchCacheStore) Invalidate(ctx context.Context, namespace string) error {
	if s.client == nil {
		return nil
	}
	indexKey := s.indexKey(namespace)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSearchCacheStore) dataKey(namespace, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:data:%s:%s", s.prefix, namespace, hex.EncodeToString(sum[:]))
}

func (s *RedisSearchCacheStore) indexKey(namespace string) string {
	return fmt.Sprintf("%s:index:%s", s.prefix, namespace)
}
