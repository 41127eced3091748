package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrCacheStale = errors.New("cache entry invalidated since read")
)

const (
	dashboardKeyPrefix = "referral:dashboard:"
	generationPrefix   = "referral:dashboard:gen:"
	dashboardTTL       = 5 * time.Minute
	// Must outlive any dashboard computation or a reset counter could match a stale version.
	generationTTL = 24 * time.Hour
)

type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// StatsCache keeps serialized dashboard projections in Redis. Every account
// has a generation counter bumped on invalidation; writes carry the generation
// read before the projection was computed and are dropped if it moved.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(ctx context.Context, opts RedisOptions) (*StatsCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &StatsCache{client: client, ttl: dashboardTTL}, nil
}

func (c *StatsCache) Get(ctx context.Context, accountID string) ([]byte, error) {
	val, err := c.client.Get(ctx, dashboardKeyPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Version returns the current generation for accountID, 0 if never invalidated.
func (c *StatsCache) Version(ctx context.Context, accountID string) (int64, error) {
	v, err := c.client.Get(ctx, generationPrefix+accountID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores payload unless accountID was invalidated after version was read,
// in which case it returns ErrCacheStale.
func (c *StatsCache) Set(ctx context.Context, accountID string, payload []byte, version int64) error {
	genKey := generationPrefix + accountID
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return ErrCacheStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dashboardKeyPrefix+accountID, payload, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrCacheStale
	}
	return err
}

// Invalidate bumps the generation and drops the cached payload of each account.
func (c *StatsCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range accountIDs {
			pipe.Incr(ctx, generationPrefix+id)
			pipe.Expire(ctx, generationPrefix+id, generationTTL)
			pipe.Del(ctx, dashboardKeyPrefix+id)
		}
		return nil
	})
	return err
}

func (c *StatsCache) Close() error {
	return c.client.Close()
}
