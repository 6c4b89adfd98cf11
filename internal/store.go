package internal

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists directory state per chat. The directory holds the
// authoritative copy in memory and writes through; a store only has to
// survive restarts, not arbitrate concurrent writers.
type Store interface {
	// SaveChat persists the full state snapshot for one chat.
	SaveChat(ctx context.Context, chat ChatID, state ChatState) error

	// LoadAll returns the persisted state of every chat.
	LoadAll(ctx context.Context) (map[ChatID]ChatState, error)

	// DeleteChat forgets a chat's persisted state.
	DeleteChat(ctx context.Context, chat ChatID) error

	// Close releases store resources.
	Close() error
}

// StoreDriver selects a Store implementation.
type StoreDriver string

const (
	StoreDriverMemory StoreDriver = "memory"
	StoreDriverSQLite StoreDriver = "sqlite"
	StoreDriverRedis  StoreDriver = "redis"
)

// StoreOption is a functional option for configuring a store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	sqlitePath  string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithSQLitePath sets the database file path for the sqlite store.
func WithSQLitePath(path string) StoreOption {
	return func(c *storeConfig) {
		c.sqlitePath = path
	}
}

// WithRedisClient sets the Redis client for the redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the expiry applied to persisted chat state in Redis.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewStore creates a Store for the given driver. The memory driver needs
// no options; sqlite requires WithSQLitePath; redis requires
// WithRedisClient.
func NewStore(driver StoreDriver, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch driver {
	case StoreDriverMemory:
		return &memoryStore{chats: make(map[ChatID]ChatState)}, nil

	case StoreDriverSQLite:
		if config.sqlitePath == "" {
			return nil, ErrInvalidStoreConfig
		}
		return newSQLiteStore(config.sqlitePath)

	case StoreDriverRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidStoreConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 7 * 24 * time.Hour
		}
		return &redisStore{client: config.redisClient, ttl: ttl}, nil

	default:
		return nil, ErrInvalidStoreDriver
	}
}

// memoryStore keeps chat state for the lifetime of the process. Losing
// all sessions on restart is documented behavior when this driver is
// selected.
type memoryStore struct {
	mu    sync.RWMutex
	chats map[ChatID]ChatState
}

// SaveChat implements Store.
func (s *memoryStore) SaveChat(ctx context.Context, chat ChatID, state ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat] = cloneState(state)
	return nil
}

// LoadAll implements Store.
func (s *memoryStore) LoadAll(ctx context.Context) (map[ChatID]ChatState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ChatID]ChatState, len(s.chats))
	for chat, state := range s.chats {
		out[chat] = cloneState(state)
	}
	return out, nil
}

// DeleteChat implements Store.
func (s *memoryStore) DeleteChat(ctx context.Context, chat ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chat)
	return nil
}

// Close implements Store.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = nil
	return nil
}

func cloneState(state ChatState) ChatState {
	records := make([]SessionRecord, len(state.Records))
	copy(records, state.Records)
	return ChatState{Records: records, NextSeq: state.NextSeq}
}
