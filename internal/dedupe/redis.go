package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs Store with a Redis SET NX EX / DEL pair, following the
// connection-hardening defaults the retrieved pack's redisclient.Config uses
// (short dial/read/write timeouts so a flaky Redis never stalls a tick).
type RedisStore struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg Config) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL builds a RedisStore from a redis:// connection string,
// applying the same short timeouts as NewRedisStore on top of whatever the
// URL itself specifies.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse dedupe url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe acquire: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("dedupe release: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return "dedupe:" + key
}
