package service

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
)

const defaultRateLimit = 1000

type RateLimiterService struct {
	redisClient *shared.RedisClient
	limit       int
}

func NewRateLimiterService(cfg *koanf.Koanf, redisClient *shared.RedisClient) *RateLimiterService {
	limit := cfg.Int("app.rate-limit")
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return &RateLimiterService{
		redisClient: redisClient,
		limit:       limit,
	}
}

// Allow checks a per-second counter in redis. Without redis every request is
// allowed; the store constraints keep correctness either way.
func (s *RateLimiterService) Allow(ctx context.Context, clientKey string) (bool, error) {
	if !s.redisClient.Ready() {
		return true, nil
	}

	key := "rate_limit:" + clientKey
	interval := time.Second

	allowed, err := s.redisClient.Client.Eval(ctx, `
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local interval = tonumber(ARGV[2])
		local current = redis.call("GET", key)
		if current and tonumber(current) >= limit then
			return 0
		else
			redis.call("INCR", key)
			redis.call("EXPIRE", key, interval)
			return 1
		end
	`, []string{key}, s.limit, int64(interval.Seconds())).Int()

	if err != nil {
		return false, err
	}

	return allowed == 1, nil
}
