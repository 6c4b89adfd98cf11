package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisChatPrefix = "chat:"

// redisStore persists chat state as JSON under chat:<id> keys with a
// rolling TTL, refreshed on every save.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// SaveChat implements Store.
func (s *redisStore) SaveChat(ctx context.Context, chat ChatID, state ChatState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}
	return s.client.Set(ctx, redisChatPrefix+string(chat), data, s.ttl).Err()
}

// LoadAll implements Store.
func (s *redisStore) LoadAll(ctx context.Context) (map[ChatID]ChatState, error) {
	out := make(map[ChatID]ChatState)

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisChatPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		for _, key := range keys {
			val, err := s.client.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get %s failed: %w", key, err)
			}
			var state ChatState
			if err := json.Unmarshal([]byte(val), &state); err != nil {
				LogWarn("skipping corrupt chat state for %s: %v", key, err)
				continue
			}
			out[ChatID(key[len(redisChatPrefix):])] = state
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

// DeleteChat implements Store.
func (s *redisStore) DeleteChat(ctx context.Context, chat ChatID) error {
	return s.client.Del(ctx, redisChatPrefix+string(chat)).Err()
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}
