package scheduler

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
)

// Scheduler struct to hold services and logger
type Scheduler struct {
	SyncService service.SyncService
	TokenRepo   repository.TokenRepository
	redisClient *shared.RedisClient
	Logger      zerolog.Logger
	interval    time.Duration
}

// NewScheduler creates a new Scheduler
func NewScheduler(cfg *koanf.Koanf, syncService service.SyncService, tokenRepo repository.TokenRepository, redisClient *shared.RedisClient, logger zerolog.Logger) *Scheduler {
	interval := cfg.Duration("sync.interval")
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		SyncService: syncService,
		TokenRepo:   tokenRepo,
		redisClient: redisClient,
		Logger:      logger,
		interval:    interval,
	}
}

// StartSyncMigratedTokens polls the graduated feed on a fixed interval. The
// redis lock keeps overlapping instances from running the batch twice; the
// store constraints make an occasional double run harmless anyway.
func (s *Scheduler) StartSyncMigratedTokens() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for range ticker.C {
		redisLockKey := "sync_migrated_tokens_lock"
		if s.redisClient.AcquireLock(redisLockKey, 1*time.Minute) {
			report, err := s.SyncService.SyncMigrated(context.Background(), false)
			if err != nil {
				s.Logger.Error().Err(err).Msg("Scheduled migrated-token sync failed")
			} else {
				s.Logger.Info().
					Int("imported", report.Imported).
					Int("checked", report.Checked).
					Int("errors", report.Errors).
					Msg("Scheduled migrated-token sync finished")
			}
			s.redisClient.ReleaseLock(redisLockKey)
		}
	}
}

// StartRefreshTokensCache re-materializes the public list cache periodically.
func (s *Scheduler) StartRefreshTokensCache() {
	ticker := time.NewTicker(4 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		redisLockKey := "refresh_tokens_cache_lock"
		if s.redisClient.AcquireLock(redisLockKey, 1*time.Minute) {
			if err := s.TokenRepo.RefreshPublishedListCache(); err != nil {
				s.Logger.Error().Err(err).Msg("Failed to refresh the published tokens cache")
			} else {
				s.Logger.Info().Msg("Refreshed the published tokens cache")
			}
			s.redisClient.ReleaseLock(redisLockKey)
		}
	}
}
