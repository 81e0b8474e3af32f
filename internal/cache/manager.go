// Package cache wraps a Redis client used to memoize embedding vectors and
// LLM (naming / self-assessment) responses so repeated queries over the same
// paragraph or prompt don't pay provider latency twice.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager wraps a Redis client with JSON helpers, a background health
// check, and a closed-guard so callers get a clear error after Close.
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config configures the cache's Redis connection and TTLs.
type Config struct {
	Addr                string        `yaml:"addr" json:"addr"`
	Password            string        `yaml:"password" json:"password"`
	DB                  int           `yaml:"db" json:"db"`
	DefaultTTL          time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxRetries          int           `yaml:"max_retries" json:"max_retries"`
	PoolSize            int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns        int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig returns sensible cache defaults.
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		Password:            "",
		DB:                  0,
		DefaultTTL:          5 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// NewManager dials Redis, pings it once to fail fast on misconfiguration,
// and starts the background health check loop.
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "response_cache")),
	}

	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	logger.Info("response cache initialized",
		zap.String("addr", config.Addr),
		zap.Int("pool_size", config.PoolSize),
	)

	return m, nil
}

// Get returns the raw cached value for key, or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", fmt.Errorf("cache manager is closed")
	}

	val, err := m.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	return val, nil
}

// Set stores value under key with ttl, falling back to Config.DefaultTTL
// when ttl is zero.
func (m *Manager) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	if err := m.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// GetJSON unmarshals the cached value under key into dest.
func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON marshals value to JSON and stores it under key.
func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	return m.Set(ctx, key, string(data), ttl)
}

// GetEmbedding returns the cached embedding vector for a content hash key,
// or ErrCacheMiss when absent.
func (m *Manager) GetEmbedding(ctx context.Context, key string) ([]float64, error) {
	var vec []float64
	if err := m.GetJSON(ctx, embeddingKey(key), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// SetEmbedding caches an embedding vector for a content hash key.
func (m *Manager) SetEmbedding(ctx context.Context, key string, vec []float64, ttl time.Duration) error {
	return m.SetJSON(ctx, embeddingKey(key), vec, ttl)
}

// GetLLMResponse returns a cached LLM response string for a prompt hash key.
func (m *Manager) GetLLMResponse(ctx context.Context, key string) (string, error) {
	return m.Get(ctx, llmKey(key))
}

// SetLLMResponse caches an LLM response string under a prompt hash key.
func (m *Manager) SetLLMResponse(ctx context.Context, key string, response string, ttl time.Duration) error {
	return m.Set(ctx, llmKey(key), response, ttl)
}

func embeddingKey(key string) string { return "embed:" + key }
func llmKey(key string) string       { return "llm:" + key }

// Delete removes the given keys. A no-op when keys is empty.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if len(keys) == 0 {
		return nil
	}

	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

// Exists returns the number of the given keys that are present.
func (m *Manager) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("cache manager is closed")
	}

	count, err := m.redis.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}

	return count, nil
}

// Expire resets a key's TTL.
func (m *Manager) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if err := m.redis.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire failed: %w", err)
	}

	return nil
}

// Ping checks connectivity to Redis.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	return m.redis.Ping(ctx).Err()
}

// Close shuts the cache down. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.logger.Info("closing response cache")

	return m.redis.Close()
}

func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			return
		}
		m.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.Ping(ctx); err != nil {
			m.logger.Error("cache health check failed", zap.Error(err))
		} else {
			m.logger.Debug("cache health check passed")
		}
		cancel()
	}
}

// Stats is a JSON-friendly snapshot of cache-server level counters.
type Stats struct {
	Keys        int64 `json:"keys"`
	Connections int   `json:"connections"`
}

// GetStats reports key count and connected-client count.
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("cache manager is closed")
	}

	keys, err := m.redis.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("get db size: %w", err)
	}

	poolStats := m.redis.PoolStats()

	return &Stats{
		Keys:        keys,
		Connections: int(poolStats.TotalConns),
	}, nil
}

// ErrCacheMiss indicates a key was not present in the cache.
var ErrCacheMiss = fmt.Errorf("cache miss")

// IsCacheMiss reports whether err is ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}
