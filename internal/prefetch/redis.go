package prefetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avancesaude/agenda-portal/internal/agenda"
)

// NewRedisClient connects to Redis with the pool settings this service
// needs and verifies connectivity before returning.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisCache is a Cache backed by Redis, letting a session's chunk entries
// survive process restarts. Every entry key is tracked in a per-session
// index set so Clear can delete the whole session wholesale without SCAN.
type RedisCache struct {
	client  *redis.Client
	session string
	ttl     time.Duration
}

// NewRedisCache scopes a cache to one browsing session. ttl bounds how long
// an abandoned session's entries linger; zero means no expiry.
func NewRedisCache(client *redis.Client, session string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, session: session, ttl: ttl}
}

func (c *RedisCache) entryKey(key ChunkKey) string {
	return fmt.Sprintf("agenda:chunk:%s:%s", c.session, key.String())
}

func (c *RedisCache) indexKey() string {
	return fmt.Sprintf("agenda:chunks:%s", c.session)
}

func (c *RedisCache) Get(ctx context.Context, key ChunkKey) ([]agenda.Appointment, bool, error) {
	data, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get chunk %s: %w", key, err)
	}
	var records []agenda.Appointment
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode chunk %s: %w", key, err)
	}
	return records, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key ChunkKey, records []agenda.Appointment) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", key, err)
	}
	entry := c.entryKey(key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, entry, data, c.ttl)
	pipe.SAdd(ctx, c.indexKey(), entry)
	if c.ttl > 0 {
		pipe.Expire(ctx, c.indexKey(), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store chunk %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("list session chunks: %w", err)
	}
	keys = append(keys, c.indexKey())
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear session chunks: %w", err)
	}
	return nil
}
