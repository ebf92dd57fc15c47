package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisCommands is the subset of redis.Cmdable used by Redis.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "complaints:device-42:".
	Prefix string
	// TTL expires values; zero keeps them until removed.
	TTL time.Duration
}

// Redis stores values in a Redis server.
type Redis struct {
	cmds   redisCommands
	prefix string
	ttl    time.Duration
}

// NewRedis connects a Redis-backed store.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("kvstore: redis backend requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisWithCommands(client, cfg.Prefix, cfg.TTL), nil
}

func newRedisWithCommands(cmds redisCommands, prefix string, ttl time.Duration) *Redis {
	return &Redis{cmds: cmds, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.cmds.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kvstore: redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.cmds.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.cmds.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool when it owns one.
func (r *Redis) Close() error {
	if closer, ok := r.cmds.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
