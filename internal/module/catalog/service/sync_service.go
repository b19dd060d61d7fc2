package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/rs/zerolog"
)

// SyncReport is the structured result of one sync run. Per-record failures
// never abort a run; they land in the buckets below.
type SyncReport struct {
	Message         string   `json:"message"`
	Imported        int      `json:"imported"`
	Updated         int      `json:"updated,omitempty"`
	Errors          int      `json:"errors"`
	Checked         int      `json:"checked"`
	New             int      `json:"new"`
	SkippedExisting int      `json:"skippedExisting,omitempty"`
	SkippedTooOld   int      `json:"skippedTooOld,omitempty"`
	ErrorDetails    []string `json:"errorDetails"`
}

func (r *SyncReport) addError(detail string) {
	r.Errors++
	if len(r.ErrorDetails) < 5 {
		r.ErrorDetails = append(r.ErrorDetails, detail)
	}
}

type SyncService interface {
	// SyncMigrated runs one ingestion batch. Automated triggers pass
	// baseline=false and never import onto an empty store; a manual baseline
	// run passes true.
	SyncMigrated(ctx context.Context, baseline bool) (*SyncReport, error)
}

type syncService struct {
	pumpFun         PumpFunService
	tokenRepo       repository.TokenRepository
	logger          zerolog.Logger
	maxBatch        int
	watermarkBuffer time.Duration
	recordDelay     time.Duration
	migrationDex    string
}

func NewSyncService(cfg *koanf.Koanf, pumpFun PumpFunService, tokenRepo repository.TokenRepository, logger zerolog.Logger) SyncService {
	return &syncService{
		pumpFun:         pumpFun,
		tokenRepo:       tokenRepo,
		logger:          logger,
		maxBatch:        cfg.Int("sync.max-batch"),
		watermarkBuffer: cfg.Duration("sync.watermark-buffer"),
		recordDelay:     cfg.Duration("sync.record-delay"),
		migrationDex:    cfg.String("sync.migration-dex"),
	}
}

func (s *syncService) SyncMigrated(ctx context.Context, baseline bool) (*SyncReport, error) {
	report := &SyncReport{ErrorDetails: []string{}}

	// the watermark is derived from the store on every run, never cached
	// in-process, so overlapping invocations stay restartable
	watermark, err := s.tokenRepo.LatestMigrationDate()
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %v", err)
	}

	graduated, err := s.pumpFun.ListGraduated(ctx)
	if err != nil {
		return nil, err
	}
	report.Checked = len(graduated)

	if len(graduated) == 0 {
		report.Message = "No graduated tokens found"
		return report, nil
	}

	// newest first, feed order kept for equal timestamps
	sorted := make([]GraduatedToken, len(graduated))
	copy(sorted, graduated)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BestTimestamp() > sorted[j].BestTimestamp()
	})

	var candidates []GraduatedToken
	if watermark == nil {
		if !baseline {
			// never bulk-import the feed's history on first contact
			s.logger.Info().Int("checked", report.Checked).Msg("No previous migrations found, skipping automated import")
			report.Message = "No previous migrations found. Run a manual baseline sync to establish a watermark; after that, new migrations are imported automatically."
			return report, nil
		}
		candidates = sorted
	} else {
		cutoff := watermark.Add(-s.watermarkBuffer)
		for _, token := range sorted {
			ts := token.BestTimestamp()
			if ts > 0 && time.Unix(int64(ts), 0).After(cutoff) {
				candidates = append(candidates, token)
			}
		}
	}

	// bound the run's wall clock
	if len(candidates) > s.maxBatch {
		candidates = candidates[:s.maxBatch]
	}
	report.New = len(candidates)

	if len(candidates) == 0 {
		report.Message = "No new tokens to import"
		return report, nil
	}

	for i, token := range candidates {
		s.processRecord(ctx, token, watermark, report)

		// respect upstream rate limits between records
		if s.recordDelay > 0 && i < len(candidates)-1 {
			time.Sleep(s.recordDelay)
		}
	}

	if report.Imported > 0 {
		report.Message = fmt.Sprintf("Sync completed: imported %d tokens", report.Imported)
	} else {
		report.Message = fmt.Sprintf("Sync completed: found %d new tokens but imported 0 (%d already exist, %d too old, %d errors)",
			report.New, report.SkippedExisting, report.SkippedTooOld, report.Errors)
	}
	return report, nil
}

func (s *syncService) processRecord(ctx context.Context, token GraduatedToken, watermark *time.Time, report *SyncReport) {
	mint := token.Mint()
	if mint == "" {
		report.addError("token missing mint address")
		return
	}
	short := mint
	if len(short) > 8 {
		short = short[:8]
	}

	exists, err := s.tokenRepo.ExistsByContract(mint, DefaultChain)
	if err != nil {
		report.addError(fmt.Sprintf("%s... - existence check failed: %v", short, err))
		return
	}
	if exists {
		s.logger.Debug().Msgf("Skipping %s... - already exists", short)
		report.SkippedExisting++
		return
	}

	// second watermark check right before the write: the admitted set may
	// have been computed against a watermark a concurrent run has since
	// advanced past
	migrationTime := token.BestTimestamp()
	if watermark != nil && migrationTime > 0 {
		cutoff := watermark.Add(-s.watermarkBuffer)
		if !time.Unix(int64(migrationTime), 0).After(cutoff) {
			s.logger.Debug().Msgf("Skipping %s... - migration time fell behind the watermark", short)
			report.SkippedTooOld++
			return
		}
	}

	metadata, _ := s.pumpFun.FetchMetadata(ctx, mint)
	if metadata == nil {
		s.logger.Debug().Msgf("Metadata not found for %s..., continuing with feed data", short)
	}

	draft, err := NormalizeToken(token, metadata, s.migrationDex, time.Now().UTC())
	if err != nil {
		report.addError(fmt.Sprintf("%s... - %v", short, err))
		return
	}
	if err := ValidateToken(draft); err != nil {
		report.addError(fmt.Sprintf("%s... - %v", short, err))
		return
	}

	outcome, err := s.tokenRepo.UpsertMigratedToken(draft)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Failed to upsert token %s", mint)
		report.addError(fmt.Sprintf("%s... - %v", short, err))
		return
	}

	switch outcome {
	case repository.OutcomeImported:
		s.logger.Info().Msgf("Imported %s (%s) - %s...", draft.Name, draft.Symbol, short)
		report.Imported++
	case repository.OutcomeUpdated:
		report.Updated++
	case repository.OutcomeSkippedDuplicate:
		s.logger.Debug().Msgf("Skipping %s... - lost the write race", short)
		report.SkippedExisting++
	}
}
