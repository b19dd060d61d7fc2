package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrTokenDataNotFound means no upstream source knows the address.
	ErrTokenDataNotFound = errors.New("could not fetch token data")
)

// ImportService handles the ad-hoc single-address import path. Unlike the
// bulk sync it creates drafts: an operator reviews before publishing.
type ImportService interface {
	ImportByAddress(ctx context.Context, contractAddress, migrationDex string) (*schema.Token, bool, error)
}

type importService struct {
	pumpFun     PumpFunService
	dexScreener DexScreenerService
	tokenRepo   repository.TokenRepository
	logger      zerolog.Logger
	defaultDex  string
}

func NewImportService(cfg *koanf.Koanf, pumpFun PumpFunService, dexScreener DexScreenerService, tokenRepo repository.TokenRepository, logger zerolog.Logger) ImportService {
	return &importService{
		pumpFun:     pumpFun,
		dexScreener: dexScreener,
		tokenRepo:   tokenRepo,
		logger:      logger,
		defaultDex:  cfg.String("sync.migration-dex"),
	}
}

// ImportByAddress fetches metadata for one address and creates or updates its
// record. The bool result reports whether a new row was created.
func (s *importService) ImportByAddress(ctx context.Context, contractAddress, migrationDex string) (*schema.Token, bool, error) {
	contractAddress = strings.TrimSpace(contractAddress)
	if contractAddress == "" {
		return nil, false, errors.New("contract address is required")
	}
	if migrationDex == "" {
		migrationDex = s.defaultDex
	}

	metadata, _ := s.pumpFun.FetchMetadata(ctx, contractAddress)
	if metadata == nil {
		metadata, _ = s.dexScreener.FetchToken(ctx, contractAddress)
	}
	if metadata == nil {
		return nil, false, ErrTokenDataNotFound
	}

	primary := GraduatedToken{"mint": contractAddress}
	draft, err := NormalizeToken(primary, metadata, migrationDex, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	draft.ContractAddress = contractAddress
	if err := ValidateToken(draft); err != nil {
		return nil, false, err
	}

	existing, err := s.tokenRepo.GetByContract(contractAddress, DefaultChain)
	if err != nil {
		return nil, false, fmt.Errorf("lookup failed for %s: %v", contractAddress, err)
	}

	if existing == nil {
		// ad-hoc imports need review before they go public
		draft.Published = false
	}

	outcome, err := s.tokenRepo.UpsertMigratedToken(draft)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info().Msgf("Manual import of %s finished: %s", contractAddress, outcome)

	return draft, outcome == repository.OutcomeImported, nil
}
