package shared

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FeedThrottler backs off individual upstream lookups when the feed starts
// rate limiting us, so one hot mint cannot burn the whole batch budget.
type FeedThrottler struct {
	redisClient *RedisClient
	logger      zerolog.Logger
}

const (
	// feedThrottlePrefix throttle key prefix, one key per mint
	feedThrottlePrefix = "feed_throttle:"

	// feedThrottleDuration how long a rate-limited mint stays muted
	feedThrottleDuration = 3 * time.Minute
)

func NewFeedThrottler(redisClient *RedisClient, logger zerolog.Logger) *FeedThrottler {
	return &FeedThrottler{
		redisClient: redisClient,
		logger:      logger,
	}
}

// IsThrottled reports whether lookups for the mint are currently muted.
func (t *FeedThrottler) IsThrottled(mint string) bool {
	if t == nil || t.redisClient == nil || t.redisClient.Client == nil {
		return false
	}

	throttleKey := feedThrottlePrefix + mint
	if _, err := t.redisClient.Client.Get(context.Background(), throttleKey).Result(); err == nil {
		return true
	}

	return false
}

// Throttle mutes a mint after the upstream answered 429 for it.
func (t *FeedThrottler) Throttle(mint string) {
	if t == nil || t.redisClient == nil || t.redisClient.Client == nil {
		return
	}

	if err := t.redisClient.Client.Set(context.Background(), feedThrottlePrefix+mint, "1", feedThrottleDuration).Err(); err != nil {
		t.logger.Error().Err(err).Msgf("Failed to set feed throttle key: %s", mint)
	}
}
