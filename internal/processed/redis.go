package processed

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fl-bidder:processed:"

// RedisConfig holds connection parameters for the Redis backed set.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	TLSEnabled bool          `mapstructure:"tls"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type setCommands interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SCard(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisSet stores the identifiers of one session in a Redis set so they
// survive restarts and can be shared between processes.
type RedisSet struct {
	rdb setCommands
	key string
	ttl time.Duration
}

// Connect opens a Redis client and pings it to verify connectivity.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return rdb, nil
}

// NewRedisSet returns the set for a session. A positive ttl is refreshed on every write.
func NewRedisSet(rdb *redis.Client, sessionID string, ttl time.Duration) *RedisSet {
	return newRedisSet(rdb, sessionID, ttl)
}

func newRedisSet(rdb setCommands, sessionID string, ttl time.Duration) *RedisSet {
	return &RedisSet{rdb: rdb, key: keyPrefix + sessionID, ttl: ttl}
}

func (s *RedisSet) MarkNew(ctx context.Context, ids []int64) ([]int64, error) {
	fresh := make([]int64, 0, len(ids))
	for _, id := range ids {
		added, err := s.rdb.SAdd(ctx, s.key, strconv.FormatInt(id, 10)).Result()
		if err != nil {
			return fresh, fmt.Errorf("redis: add processed project %d: %w", id, err)
		}
		if added > 0 {
			fresh = append(fresh, id)
		}
	}

	if s.ttl > 0 && len(fresh) > 0 {
		if err := s.rdb.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return fresh, fmt.Errorf("redis: expire %s: %w", s.key, err)
		}
	}

	return fresh, nil
}

func (s *RedisSet) Len(ctx context.Context) (int, error) {
	n, err := s.rdb.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: count processed projects: %w", err)
	}
	return int(n), nil
}
