package service

import (
	"errors"
	"strings"

	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrSlugTaken     = errors.New("token with this slug already exists")
	ErrTokenMissing  = errors.New("token not found")
)

type TokensService interface {
	CreateToken(token *schema.Token) error
	UpdateToken(id uint64, updated *schema.Token) (*schema.Token, error)
	DeleteToken(id uint64) error
	PublishToken(id uint64, published bool) (*schema.Token, error)
	GetTokenBySlug(slug string) (*schema.Token, error)
	ListTokens(publishedOnly bool) ([]schema.Token, error)
	ListPublished() ([]schema.Token, error)
	DeleteMigrated() (int64, error)
}

type tokensService struct {
	tokenRepo repository.TokenRepository
}

func NewTokensService(tokenRepo repository.TokenRepository) TokensService {
	return &tokensService{
		tokenRepo: tokenRepo,
	}
}

// CreateToken creates an admin-authored draft. Slug conflicts are reported to
// the caller instead of auto-resolved: a human picked this slug.
func (s *tokensService) CreateToken(token *schema.Token) error {
	if token.Name == "" || token.Symbol == "" || token.ContractAddress == "" || token.Chain == "" {
		return ErrMissingFields
	}
	if token.Slug == "" {
		token.Slug = Slugify(token.Name)
	}
	if token.Slug == "" {
		return ErrMissingFields
	}

	existing, err := s.tokenRepo.GetBySlug(token.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrSlugTaken
	}

	token.Published = false // drafts go through review
	return s.tokenRepo.CreateToken(token)
}

func (s *tokensService) UpdateToken(id uint64, updated *schema.Token) (*schema.Token, error) {
	existing, err := s.tokenRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTokenMissing
	}

	if updated.Name != "" {
		existing.Name = updated.Name
	}
	if updated.Symbol != "" {
		existing.Symbol = updated.Symbol
	}
	if slug := strings.TrimSpace(updated.Slug); slug != "" && slug != existing.Slug {
		other, err := s.tokenRepo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != existing.ID {
			return nil, ErrSlugTaken
		}
		existing.Slug = slug
	}
	if updated.Description != nil {
		existing.Description = updated.Description
	}
	if updated.Lore != nil {
		existing.Lore = updated.Lore
	}
	if updated.OriginStory != nil {
		existing.OriginStory = updated.OriginStory
	}
	if updated.LogoURL != nil {
		existing.LogoURL = updated.LogoURL
	}
	if updated.TwitterURL != nil {
		existing.TwitterURL = updated.TwitterURL
	}
	if updated.TelegramURL != nil {
		existing.TelegramURL = updated.TelegramURL
	}
	if updated.WebsiteURL != nil {
		existing.WebsiteURL = updated.WebsiteURL
	}
	if updated.LaunchDate != nil {
		existing.LaunchDate = updated.LaunchDate
	}
	if updated.LaunchPrice != nil {
		existing.LaunchPrice = updated.LaunchPrice
	}
	if updated.CurrentPrice != nil {
		existing.CurrentPrice = updated.CurrentPrice
	}
	if updated.MarketCap != nil {
		existing.MarketCap = updated.MarketCap
	}
	if updated.Volume24h != nil {
		existing.Volume24h = updated.Volume24h
	}
	if updated.Sentiment != nil {
		existing.Sentiment = updated.Sentiment
	}

	if err := s.tokenRepo.UpdateToken(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *tokensService) DeleteToken(id uint64) error {
	return s.tokenRepo.DeleteToken(id)
}

func (s *tokensService) PublishToken(id uint64, published bool) (*schema.Token, error) {
	existing, err := s.tokenRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTokenMissing
	}
	existing.Published = published
	if err := s.tokenRepo.UpdateToken(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *tokensService) GetTokenBySlug(slug string) (*schema.Token, error) {
	return s.tokenRepo.GetBySlug(slug)
}

func (s *tokensService) ListTokens(publishedOnly bool) ([]schema.Token, error) {
	return s.tokenRepo.ListTokens(publishedOnly)
}

func (s *tokensService) ListPublished() ([]schema.Token, error) {
	return s.tokenRepo.ListPublished()
}

func (s *tokensService) DeleteMigrated() (int64, error) {
	return s.tokenRepo.DeleteMigrated()
}
