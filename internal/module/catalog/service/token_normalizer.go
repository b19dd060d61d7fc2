package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/memelore/meme-token-catalog/internal/database/schema"
)

var (
	// ErrMissingAddress marks a feed record with no resolvable mint address.
	ErrMissingAddress = errors.New("token missing mint address")
)

const (
	// DefaultChain is the chain label every pipeline-sourced record carries.
	DefaultChain = "Solana"

	// timestamps above this magnitude are milliseconds, not seconds
	millisecondThreshold = 10_000_000_000
)

var slugScrubber = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeUnixSeconds disambiguates seconds vs milliseconds by magnitude.
func normalizeUnixSeconds(ts float64) float64 {
	if ts > millisecondThreshold {
		return ts / 1000
	}
	return ts
}

// parseTimeString converts a textual timestamp into unix seconds, 0 on failure.
func parseTimeString(s string) float64 {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return float64(parsed.Unix())
		}
	}
	return 0
}

// Slugify lowercases the name, collapses every run of non-alphanumerics into
// a single hyphen and trims the edges. Empty input yields an empty slug.
func Slugify(name string) string {
	slug := slugScrubber.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// NormalizeSocialURL turns a bare handle into a full profile URL for its
// platform; absolute URLs pass through unchanged.
func NormalizeSocialURL(platform, value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "http") {
		return &value
	}

	var full string
	switch platform {
	case "twitter":
		full = "https://twitter.com/" + strings.TrimPrefix(value, "@")
	case "telegram":
		full = "https://t.me/" + strings.ReplaceAll(strings.TrimPrefix(value, "@"), "/", "")
	default:
		full = "https://" + value
	}
	return &full
}

// resolveMigrationDate picks the single authoritative migration instant.
// Implausible future values (more than a year out) are replaced with now.
func resolveMigrationDate(primary GraduatedToken, now time.Time) time.Time {
	ts := primary.BestTimestamp()
	if ts <= 0 {
		return now
	}
	migrated := time.Unix(int64(ts), 0).UTC()
	if migrated.After(now.Add(365 * 24 * time.Hour)) {
		return now
	}
	return migrated
}

// NormalizeToken converts a raw graduated-list record plus optional metadata
// into a canonical store draft. Only a missing address is fatal; every other
// gap is defaulted. Pure function of its inputs.
func NormalizeToken(primary GraduatedToken, metadata GraduatedToken, migrationDex string, now time.Time) (*schema.Token, error) {
	mint := primary.Mint()
	if mint == "" && metadata != nil {
		mint = metadata.Mint()
	}
	if mint == "" {
		return nil, ErrMissingAddress
	}

	richest := metadata
	if richest == nil {
		richest = primary
	}

	name := firstNonEmpty(
		richest.stringField("name"),
		nestedString(richest, "name"),
		primary.stringField("name"),
		nestedString(primary, "name"),
	)
	symbol := firstNonEmpty(
		richest.stringField("symbol"),
		nestedString(richest, "symbol"),
		primary.stringField("symbol"),
		nestedString(primary, "symbol"),
	)

	addrPrefix := mint
	if len(addrPrefix) > 8 {
		addrPrefix = addrPrefix[:8]
	}
	if name == "" {
		name = fmt.Sprintf("Token %s", addrPrefix)
	}
	if symbol == "" {
		symbol = "UNKNOWN"
	}

	slug := Slugify(name)
	if slug == "" {
		long := mint
		if len(long) > 16 {
			long = long[:16]
		}
		slug = "token-" + strings.ToLower(long)
	}

	description := firstNonEmpty(
		richest.stringField("description"),
		nestedString(richest, "description"),
		primary.stringField("description"),
	)
	logo := firstNonEmpty(
		richest.stringField("imageUri", "image"),
		nestedString(richest, "image"),
		primary.stringField("imageUri", "image"),
	)

	migrationDate := resolveMigrationDate(primary, now)

	token := &schema.Token{
		Name:            name,
		Symbol:          symbol,
		Slug:            slug,
		ContractAddress: mint,
		Chain:           DefaultChain,
		TwitterURL:      NormalizeSocialURL("twitter", firstNonEmpty(richest.stringField("twitter", "twitterUrl"), primary.stringField("twitter", "twitterUrl"))),
		TelegramURL:     NormalizeSocialURL("telegram", firstNonEmpty(richest.stringField("telegram", "telegramUrl"), primary.stringField("telegram", "telegramUrl"))),
		WebsiteURL:      NormalizeSocialURL("website", firstNonEmpty(richest.stringField("website", "websiteUrl"), primary.stringField("website", "websiteUrl"))),
		Attributes:      extractAttributes(richest),
		IsPumpFun:       true,
		Migrated:        true,
		MigrationDate:   &migrationDate,
		Published:       true, // bulk sync is trusted, auto-publish
	}
	if description != "" {
		token.Description = &description
	}
	if logo != "" {
		token.LogoURL = &logo
	}
	if migrationDex != "" {
		token.MigrationDex = &migrationDex
	}

	return token, nil
}

// ValidateToken rejects a draft whose required fields are still empty after
// defaulting; the reason is reported in the run's error bucket.
func ValidateToken(token *schema.Token) error {
	switch {
	case strings.TrimSpace(token.ContractAddress) == "":
		return errors.New("empty contract address")
	case strings.TrimSpace(token.Chain) == "":
		return errors.New("empty chain")
	case strings.TrimSpace(token.Name) == "":
		return errors.New("empty name")
	case strings.TrimSpace(token.Symbol) == "":
		return errors.New("empty symbol")
	case strings.TrimSpace(token.Slug) == "":
		return errors.New("empty slug")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func nestedString(t GraduatedToken, key string) string {
	if t == nil {
		return ""
	}
	if m := t.metadata(); m != nil {
		return m.stringField(key)
	}
	return ""
}

// extractAttributes folds the metadata attributes array into a flat trait map.
func extractAttributes(t GraduatedToken) schema.JSONMap {
	if t == nil {
		return nil
	}
	source := t
	if m := t.metadata(); m != nil {
		if _, ok := m["attributes"]; ok {
			source = m
		}
	}
	raw, ok := source["attributes"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}

	attrs := make(schema.JSONMap)
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		trait, _ := entry["trait_type"].(string)
		value, _ := entry["value"].(string)
		if trait != "" && value != "" {
			attrs[trait] = value
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
