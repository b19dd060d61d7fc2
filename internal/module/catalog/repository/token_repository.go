package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/memelore/meme-token-catalog/internal/database"
	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// UpsertOutcome is the per-record result of the migrated-token write path.
type UpsertOutcome int

const (
	OutcomeImported UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkippedDuplicate
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeImported:
		return "imported"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkippedDuplicate:
		return "skipped-duplicate"
	}
	return "unknown"
}

type TokenRepository interface {
	UpsertMigratedToken(token *schema.Token) (UpsertOutcome, error)
	LatestMigrationDate() (*time.Time, error)
	ExistsByContract(address, chain string) (bool, error)
	GetByContract(address, chain string) (*schema.Token, error)
	GetBySlug(slug string) (*schema.Token, error)
	GetByID(id uint64) (*schema.Token, error)
	ListTokens(publishedOnly bool) ([]schema.Token, error)
	ListPublished() ([]schema.Token, error)
	CreateToken(token *schema.Token) error
	UpdateToken(token *schema.Token) error
	DeleteToken(id uint64) error
	DeleteMigrated() (int64, error)
	RefreshPublishedListCache() error
}

type tokenRepository struct {
	db          *database.Database
	logger      zerolog.Logger
	redisClient *shared.RedisClient
}

func NewTokenRepository(db *database.Database, logger zerolog.Logger, redisClient *shared.RedisClient) TokenRepository {
	return &tokenRepository{
		db:          db,
		logger:      logger,
		redisClient: redisClient,
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// postgres: duplicate key value violates unique constraint "..."
	// sqlite:   UNIQUE constraint failed: tokens....
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func violationOnSlug(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "slug")
}

func violationOnContract(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "contract")
}

// addressSlug is the fully address-derived fallback slug.
func addressSlug(address string) string {
	if len(address) > 16 {
		address = address[:16]
	}
	return "token-" + strings.ToLower(address)
}

// suffixedSlug disambiguates a colliding name-derived slug.
func suffixedSlug(slug, address string) string {
	if len(address) > 8 {
		address = address[:8]
	}
	return slug + "-" + strings.ToLower(address)
}

// UpsertMigratedToken is the sole writer path for tokens coming out of the
// migration pipeline. At most one row ever exists per (contract, chain);
// concurrent runs losing a write race get a skip, not an error.
func (r *tokenRepository) UpsertMigratedToken(token *schema.Token) (UpsertOutcome, error) {
	existing, err := r.GetByContract(token.ContractAddress, token.Chain)
	if err != nil {
		return 0, fmt.Errorf("lookup failed for %s: %v", token.ContractAddress, err)
	}

	if existing != nil {
		r.mergeMutableFields(existing, token)
		if err := r.db.DB.Save(existing).Error; err != nil {
			return 0, fmt.Errorf("update failed for %s: %v", token.ContractAddress, err)
		}
		r.invalidateCaches(existing.Slug)
		*token = *existing
		return OutcomeUpdated, nil
	}

	// resolve a slug collision before writing
	taken, err := r.slugTakenByOther(token.Slug, token.ContractAddress)
	if err != nil {
		return 0, fmt.Errorf("slug check failed for %s: %v", token.ContractAddress, err)
	}
	if taken {
		token.Slug = suffixedSlug(token.Slug, token.ContractAddress)
		if taken, err = r.slugTakenByOther(token.Slug, token.ContractAddress); err == nil && taken {
			token.Slug = addressSlug(token.ContractAddress)
		}
	}

	if err := r.db.DB.Create(token).Error; err != nil {
		if !isUniqueViolation(err) {
			return 0, fmt.Errorf("create failed for %s: %v", token.ContractAddress, err)
		}
		if violationOnContract(err) {
			// another run won the race on this address
			return OutcomeSkippedDuplicate, nil
		}
		if violationOnSlug(err) {
			token.ID = 0
			token.Slug = addressSlug(token.ContractAddress)
			if retryErr := r.db.DB.Create(token).Error; retryErr != nil {
				if isUniqueViolation(retryErr) && violationOnContract(retryErr) {
					return OutcomeSkippedDuplicate, nil
				}
				return 0, fmt.Errorf("create retry failed for %s: %v", token.ContractAddress, retryErr)
			}
			r.invalidateCaches(token.Slug)
			return OutcomeImported, nil
		}
		return 0, fmt.Errorf("create failed for %s: %v", token.ContractAddress, err)
	}

	r.invalidateCaches(token.Slug)
	return OutcomeImported, nil
}

// mergeMutableFields folds incoming values over the stored row without ever
// regressing a populated column back to null.
func (r *tokenRepository) mergeMutableFields(existing, incoming *schema.Token) {
	if incoming.Name != "" {
		existing.Name = incoming.Name
	}
	if incoming.Symbol != "" {
		existing.Symbol = incoming.Symbol
	}
	if incoming.Description != nil {
		existing.Description = incoming.Description
	}
	if incoming.LogoURL != nil {
		existing.LogoURL = incoming.LogoURL
	}
	if incoming.TwitterURL != nil {
		existing.TwitterURL = incoming.TwitterURL
	}
	if incoming.TelegramURL != nil {
		existing.TelegramURL = incoming.TelegramURL
	}
	if incoming.WebsiteURL != nil {
		existing.WebsiteURL = incoming.WebsiteURL
	}
	if len(incoming.Attributes) > 0 {
		existing.Attributes = incoming.Attributes
	}
	if incoming.MigrationDate != nil {
		existing.MigrationDate = incoming.MigrationDate
	}
	if incoming.MigrationDex != nil {
		existing.MigrationDex = incoming.MigrationDex
	}
	existing.IsPumpFun = existing.IsPumpFun || incoming.IsPumpFun
	existing.Migrated = existing.Migrated || incoming.Migrated
}

func (r *tokenRepository) slugTakenByOther(slug, address string) (bool, error) {
	var count int64
	err := r.db.DB.Model(&schema.Token{}).
		Where("slug = ? AND contract_address <> ?", slug, address).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestMigrationDate returns the watermark: the newest migration date among
// platform-sourced migrated rows, or nil when no baseline exists.
func (r *tokenRepository) LatestMigrationDate() (*time.Time, error) {
	var token schema.Token
	err := r.db.DB.
		Where("migrated = ? AND is_pump_fun = ? AND migration_date IS NOT NULL", true, true).
		Order("migration_date DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return token.MigrationDate, nil
}

func (r *tokenRepository) ExistsByContract(address, chain string) (bool, error) {
	var count int64
	err := r.db.DB.Model(&schema.Token{}).
		Where("contract_address = ? AND chain = ?", address, chain).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tokenRepository) GetByContract(address, chain string) (*schema.Token, error) {
	var token schema.Token
	err := r.db.DB.Where("contract_address = ? AND chain = ?", address, chain).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) GetBySlug(slug string) (*schema.Token, error) {
	// cache hit path
	if val, err := r.redisClient.GetTokenCache(slug); err == nil && val != "" {
		var token schema.Token
		if err := json.Unmarshal([]byte(val), &token); err == nil {
			return &token, nil
		}
	} else if err != nil && err != redis.Nil {
		r.logger.Debug().Err(err).Msgf("Token cache read failed: %s", slug)
	}

	var token schema.Token
	err := r.db.DB.Preload("Events").Preload("Gallery").Where("slug = ?", slug).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if data, err := json.Marshal(token); err == nil {
		r.redisClient.SetTokenCache(slug, string(data))
	}

	return &token, nil
}

func (r *tokenRepository) GetByID(id uint64) (*schema.Token, error) {
	var token schema.Token
	err := r.db.DB.Preload("Events").Preload("Gallery").First(&token, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) ListTokens(publishedOnly bool) ([]schema.Token, error) {
	var tokens []schema.Token
	query := r.db.DB.Order("migration_date DESC NULLS LAST, created_at DESC")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if err := query.Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// ListPublished serves the public catalogue, preferring the cached copy.
func (r *tokenRepository) ListPublished() ([]schema.Token, error) {
	if val, err := r.redisClient.GetPublishedListCache(); err == nil && val != "" {
		var tokens []schema.Token
		if err := json.Unmarshal([]byte(val), &tokens); err == nil {
			return tokens, nil
		}
	}

	tokens, err := r.ListTokens(true)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(tokens); err == nil {
		r.redisClient.SetPublishedListCache(string(data))
	}
	return tokens, nil
}

func (r *tokenRepository) CreateToken(token *schema.Token) error {
	if err := r.db.DB.Create(token).Error; err != nil {
		return err
	}
	r.invalidateCaches(token.Slug)
	return nil
}

func (r *tokenRepository) UpdateToken(token *schema.Token) error {
	if err := r.db.DB.Save(token).Error; err != nil {
		return err
	}
	r.invalidateCaches(token.Slug)
	return nil
}

func (r *tokenRepository) DeleteToken(id uint64) error {
	token, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if token == nil {
		return gorm.ErrRecordNotFound
	}

	return r.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("token_id = ?", id).Delete(&schema.TokenEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("token_id = ?", id).Delete(&schema.TokenMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&schema.Token{}, id).Error; err != nil {
			return err
		}
		r.invalidateCaches(token.Slug)
		return nil
	})
}

// DeleteMigrated purges every platform-sourced migrated row together with its
// owned timeline and gallery children, and reports how many tokens went away.
func (r *tokenRepository) DeleteMigrated() (int64, error) {
	var deleted int64
	err := r.db.DB.Transaction(func(tx *gorm.DB) error {
		var ids []uint64
		if err := tx.Model(&schema.Token{}).
			Where("migrated = ? AND is_pump_fun = ?", true, true).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("token_id IN ?", ids).Delete(&schema.TokenEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("token_id IN ?", ids).Delete(&schema.TokenMedia{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("id IN ?", ids).Delete(&schema.Token{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if r.redisClient.Ready() {
		if err := r.redisClient.DeleteKeysByPrefix("token:slug:"); err != nil {
			r.logger.Error().Err(err).Msg("Failed to flush token caches after purge")
		}
		r.redisClient.DeletePublishedListCache()
	}

	return deleted, nil
}

// RefreshPublishedListCache re-materializes the public list cache.
func (r *tokenRepository) RefreshPublishedListCache() error {
	tokens, err := r.ListTokens(true)
	if err != nil {
		return err
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return r.redisClient.SetPublishedListCache(string(data))
}

func (r *tokenRepository) invalidateCaches(slug string) {
	r.redisClient.DeleteTokenCache(slug)
	r.redisClient.DeletePublishedListCache()
}
