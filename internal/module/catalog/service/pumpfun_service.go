package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
)

var (
	// ErrUpstreamUnavailable aborts a sync run: the graduated list could not
	// be fetched at all.
	ErrUpstreamUnavailable = errors.New("upstream graduated feed unavailable")
)

var feedHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":     "application/json",
}

// GraduatedToken is a raw upstream record. The feed is loosely typed and key
// names drift between API versions, so we keep it as a map and probe.
type GraduatedToken map[string]interface{}

// Mint probes the known alternate key names for the on-chain address.
func (t GraduatedToken) Mint() string {
	for _, key := range []string{"mint", "coinMint", "mintAddress", "address"} {
		if v, ok := t[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// BestTimestamp probes migration-time fields before creation-time fields and
// returns unix seconds, or 0 when nothing usable is present.
func (t GraduatedToken) BestTimestamp() float64 {
	for _, key := range []string{"migrationTime", "graduatedAt", "creationTime", "createdAt", "created_at"} {
		switch v := t[key].(type) {
		case float64:
			if v > 0 {
				return normalizeUnixSeconds(v)
			}
		case string:
			if ts := parseTimeString(v); ts > 0 {
				return ts
			}
		}
	}
	return 0
}

func (t GraduatedToken) stringField(keys ...string) string {
	for _, key := range keys {
		if v, ok := t[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (t GraduatedToken) metadata() GraduatedToken {
	if m, ok := t["metadata"].(map[string]interface{}); ok {
		return GraduatedToken(m)
	}
	return nil
}

type PumpFunService interface {
	ListGraduated(ctx context.Context) ([]GraduatedToken, error)
	FetchMetadata(ctx context.Context, mint string) (GraduatedToken, error)
}

type pumpFunService struct {
	graduatedURL string
	metadataURL  string
	client       shared.HTTPClient
	throttler    *shared.FeedThrottler
	logger       zerolog.Logger
}

func NewPumpFunService(cfg *koanf.Koanf, throttler *shared.FeedThrottler, logger zerolog.Logger) PumpFunService {
	return &pumpFunService{
		graduatedURL: cfg.String("sync.graduated-url"),
		metadataURL:  strings.TrimRight(cfg.String("sync.metadata-url"), "/"),
		client:       &http.Client{},
		throttler:    throttler,
		logger:       logger,
	}
}

// ListGraduated fetches the full current graduated list. The three envelope
// shapes observed in the wild are a bare array, {data:[...]} and {coins:[...]};
// anything else is treated as an empty feed so one odd response cannot halt
// the polling loop.
func (s *pumpFunService) ListGraduated(ctx context.Context) ([]GraduatedToken, error) {
	body, status, err := shared.DoRequest(s.client, s.graduatedURL, feedHeaders, 10)
	if err != nil {
		s.logger.Error().Err(err).Int("status", status).Msg("Failed to fetch graduated tokens")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var envelope interface{}
	if err := shared.ParseJSONResponse(body, &envelope); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode graduated tokens response")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var raw []interface{}
	switch v := envelope.(type) {
	case []interface{}:
		raw = v
	case map[string]interface{}:
		if list, ok := v["data"].([]interface{}); ok {
			raw = list
		} else if list, ok := v["coins"].([]interface{}); ok {
			raw = list
		} else {
			s.logger.Warn().Msg("Unexpected response format from graduated feed")
			return []GraduatedToken{}, nil
		}
	default:
		s.logger.Warn().Msg("Unexpected response format from graduated feed")
		return []GraduatedToken{}, nil
	}

	tokens := make([]GraduatedToken, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			tokens = append(tokens, GraduatedToken(m))
		}
	}
	return tokens, nil
}

// FetchMetadata is best-effort: any failure maps to (nil, nil) so a missing
// metadata record never blocks ingestion of an otherwise valid token.
func (s *pumpFunService) FetchMetadata(ctx context.Context, mint string) (GraduatedToken, error) {
	if s.throttler.IsThrottled(mint) {
		s.logger.Debug().Msgf("Metadata lookup throttled: %s", mint)
		return nil, nil
	}

	body, status, err := shared.DoRequest(s.client, s.metadataURL+"/"+mint, feedHeaders, 10)
	if err != nil {
		if status == http.StatusTooManyRequests {
			s.throttler.Throttle(mint)
		}
		s.logger.Warn().Int("status", status).Msgf("Failed to fetch metadata for %s", mint)
		return nil, nil
	}

	var metadata map[string]interface{}
	if err := shared.ParseJSONResponse(body, &metadata); err != nil {
		s.logger.Warn().Err(err).Msgf("Failed to decode metadata for %s", mint)
		return nil, nil
	}

	return GraduatedToken(metadata), nil
}
