package shared

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RedisClient struct {
	Client           *redis.Client
	url              string
	options          *redis.Options
	retryCount       int
	keepliveInterval time.Duration
	logger           zerolog.Logger
}

const (
	redisTokenPrefix         = "token:slug:"     // single token cache, keyed by slug
	redisPublishedListKey    = "tokens:published" // public list cache
	redisTokenCacheDuration  = 10 * time.Minute
	redisListCacheDuration   = 5 * time.Minute
	deleteBatchSize          = 1000
	deleteMaxRetries         = 3
)

func NewRedisClient(cfg *koanf.Koanf, logger zerolog.Logger) *RedisClient {
	url := cfg.String("redis.url")
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Panic().Err(err)
	}

	return &RedisClient{
		Client:           nil,
		options:          opts,
		logger:           logger,
		url:              url,
		retryCount:       cfg.Int("redis.retry-count"),
		keepliveInterval: cfg.Duration("redis.keeplive-interval"),
	}
}

func (r *RedisClient) keeplive() {
	for {
		if r.Client == nil {
			for i := 1; i <= r.retryCount; i++ {
				_, err := r.Client.Ping(context.Background()).Result()
				if err == nil || err == redis.Nil {
					r.logger.Info().Msgf("Reconnected to Redis succesfully!")
					break
				} else {
					if i == r.retryCount {
						r.Close()
						r.logger.Panic().Msgf("Failed to connect to Redis: %v. Retrying in %v...\n", err, i)
						return
					}

					r.logger.Warn().Msgf("Failed to connect to Redis: %v. Retrying in %v...\n", err, i)
					r.Client = redis.NewClient(r.options)
				}
			}
		} else {
			r.Client = redis.NewClient(r.options)
		}

		time.Sleep(r.keepliveInterval)
	}
}

func (r *RedisClient) Connect() {
	r.Client = redis.NewClient(r.options)
	go r.keeplive()
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// Ready reports whether a usable connection exists. Cache helpers are
// nil-tolerant so the store keeps working when redis is absent.
func (r *RedisClient) Ready() bool {
	return r != nil && r.Client != nil
}

func (r *RedisClient) DeleteKeysByPrefix(prefix string) error {
	ctx := context.Background()
	iter := r.Client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= deleteBatchSize {
			if err := r.DeleteKeyBatch(keys); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}

	// Delete remaining keys if any
	if len(keys) > 0 {
		if err := r.DeleteKeyBatch(keys); err != nil {
			return err
		}
	}

	if err := iter.Err(); err != nil {
		return err
	}
	return nil
}

func (r *RedisClient) DeleteKeyBatch(keys []string) error {
	ctx := context.Background()

	for i := 0; i < len(keys); i += deleteBatchSize {
		end := i + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[i:end]

		for retries := 0; retries < deleteMaxRetries; retries++ {
			pipe := r.Client.Pipeline()
			for _, key := range batch {
				pipe.Del(ctx, key)
			}
			_, err := pipe.Exec(ctx)
			if err != nil {
				if retries == deleteMaxRetries-1 {
					return err
				}
				continue
			}
			break
		}
	}

	return nil
}

func (r *RedisClient) AcquireLock(lockKey string, ttl time.Duration) bool {
	ctx := context.Background()
	ok, err := r.Client.SetNX(ctx, lockKey, "locked", ttl).Result()
	if err != nil {
		r.logger.Debug().Msg("Failed to acquire lock key " + lockKey)
		return false
	}
	if !ok {
		r.logger.Debug().Msg("Task already locked by another instance key:" + lockKey)
		return false
	}
	return true
}

func (r *RedisClient) ReleaseLock(lockKey string) {
	ctx := context.Background()
	r.Client.Del(ctx, lockKey)
}

func (r *RedisClient) SetTokenCache(slug string, payload string) error {
	if !r.Ready() {
		return nil
	}
	return r.Client.Set(context.Background(), redisTokenPrefix+slug, payload, redisTokenCacheDuration).Err()
}

func (r *RedisClient) GetTokenCache(slug string) (string, error) {
	if !r.Ready() {
		return "", redis.Nil
	}
	return r.Client.Get(context.Background(), redisTokenPrefix+slug).Result()
}

func (r *RedisClient) DeleteTokenCache(slug string) {
	if !r.Ready() {
		return
	}
	r.Client.Del(context.Background(), redisTokenPrefix+slug)
}

func (r *RedisClient) SetPublishedListCache(payload string) error {
	if !r.Ready() {
		return nil
	}
	return r.Client.Set(context.Background(), redisPublishedListKey, payload, redisListCacheDuration).Err()
}

func (r *RedisClient) GetPublishedListCache() (string, error) {
	if !r.Ready() {
		return "", redis.Nil
	}
	return r.Client.Get(context.Background(), redisPublishedListKey).Result()
}

func (r *RedisClient) DeletePublishedListCache() {
	if !r.Ready() {
		return
	}
	r.Client.Del(context.Background(), redisPublishedListKey)
}
