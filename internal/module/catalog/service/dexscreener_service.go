package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
)

// DexScreenerService is the fallback metadata source for manual imports when
// the launch platform no longer knows an address.
type DexScreenerService interface {
	FetchToken(ctx context.Context, address string) (GraduatedToken, error)
}

type dexScreenerService struct {
	baseURL string
	client  shared.HTTPClient
	logger  zerolog.Logger
}

func NewDexScreenerService(cfg *koanf.Koanf, logger zerolog.Logger) DexScreenerService {
	return &dexScreenerService{
		baseURL: strings.TrimRight(cfg.String("sync.dexscreener-url"), "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

// FetchToken returns the base-token info of the first pair listed for the
// address, reshaped into the loosely-typed record the normalizer consumes.
// Best-effort: any failure maps to (nil, nil).
func (s *dexScreenerService) FetchToken(ctx context.Context, address string) (GraduatedToken, error) {
	body, status, err := shared.DoRequest(s.client, s.baseURL+"/"+address, nil, 10)
	if err != nil {
		s.logger.Warn().Int("status", status).Msgf("Failed to fetch DexScreener data for %s", address)
		return nil, nil
	}

	var payload struct {
		Pairs []struct {
			BaseToken struct {
				Address string `json:"address"`
				Name    string `json:"name"`
				Symbol  string `json:"symbol"`
				LogoURI string `json:"logoURI"`
			} `json:"baseToken"`
		} `json:"pairs"`
	}
	if err := shared.ParseJSONResponse(body, &payload); err != nil {
		s.logger.Warn().Err(err).Msgf("Failed to decode DexScreener response for %s", address)
		return nil, nil
	}
	if len(payload.Pairs) == 0 {
		return nil, nil
	}

	base := payload.Pairs[0].BaseToken
	record := GraduatedToken{
		"name":   base.Name,
		"symbol": base.Symbol,
	}
	if base.Address != "" {
		record["address"] = base.Address
	} else {
		record["address"] = address
	}
	if base.LogoURI != "" {
		record["imageUri"] = base.LogoURI
	}
	return record, nil
}
