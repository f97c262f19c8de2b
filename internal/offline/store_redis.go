package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps drafts and queues in Redis so several agents on one
// device or host share them. A list is a Redis list of ids plus a hash of
// payloads.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient builds a store on an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cec:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Client exposes the underlying connection, for example to build a Locker.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) key(k string) string      { return s.prefix + "kv:" + k }
func (s *RedisStore) listKey(l string) string  { return s.prefix + "list:" + l }
func (s *RedisStore) itemsKey(l string) string { return s.prefix + "items:" + l }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, list string, item Item) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.itemsKey(list), item.ID, item.Payload)
		p.RPush(ctx, s.listKey(list), item.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append to %s: %w", list, err)
	}
	return nil
}

func (s *RedisStore) Items(ctx context.Context, list string) ([]Item, error) {
	ids, err := s.client.LRange(ctx, s.listKey(list), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	out := make([]Item, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.itemsKey(list), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s items: %w", list, err)
	}
	for i, v := range vals {
		payload, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, Item{ID: ids[i], Payload: []byte(payload)})
	}
	return out, nil
}

func (s *RedisStore) Replace(ctx context.Context, list string, item Item) error {
	exists, err := s.client.HExists(ctx, s.itemsKey(list), item.ID).Result()
	if err != nil {
		return fmt.Errorf("replace in %s: %w", list, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.HSet(ctx, s.itemsKey(list), item.ID, item.Payload).Err(); err != nil {
		return fmt.Errorf("replace in %s: %w", list, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, list, id string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, s.listKey(list), 1, id)
		p.HDel(ctx, s.itemsKey(list), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove from %s: %w", list, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
