package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cache entries between replicas. Entries never expire;
// redis' own maxmemory policy bounds the keyspace.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = &RedisStore{}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool) {
	data, err := s.client.Get(ctx, s.prefix+key.String()).Bytes()
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

func (s *RedisStore) Set(ctx context.Context, key Key, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	s.client.Set(ctx, s.prefix+key.String(), data, 0)
}
