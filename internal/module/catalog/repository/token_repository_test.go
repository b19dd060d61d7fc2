package repository_test

import (
	"testing"
	"time"

	"github.com/memelore/meme-token-catalog/internal/database"
	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (repository.TokenRepository, *database.Database) {
	t.Helper()
	db := shared.SetupTestDB()
	return repository.NewTokenRepository(db, zerolog.New(nil), nil), db
}

func strPtr(s string) *string { return &s }

func migratedToken(address, name, slug string, migratedAt time.Time) *schema.Token {
	dex := "PumpSwap"
	return &schema.Token{
		Name:            name,
		Symbol:          "TT",
		Slug:            slug,
		ContractAddress: address,
		Chain:           "Solana",
		IsPumpFun:       true,
		Migrated:        true,
		MigrationDate:   &migratedAt,
		MigrationDex:    &dex,
		Published:       true,
	}
}

func TestUpsertMigratedTokenCreateThenUpdate(t *testing.T) {
	repo, _ := newTestRepo(t)

	first := migratedToken("MintAddr1111", "Pepe Classic", "pepe-classic", time.Now().UTC())
	first.LogoURL = strPtr("https://img.example/pepe.png")

	outcome, err := repo.UpsertMigratedToken(first)
	require.NoError(t, err)
	assert.Equal(t, repository.OutcomeImported, outcome)

	// same contract again: updates in place, never regresses populated columns
	second := migratedToken("MintAddr1111", "Pepe Classic Renamed", "pepe-classic", time.Now().UTC())
	second.LogoURL = nil
	second.Description = strPtr("now with a description")

	outcome, err = repo.UpsertMigratedToken(second)
	require.NoError(t, err)
	assert.Equal(t, repository.OutcomeUpdated, outcome)

	stored, err := repo.GetByContract("MintAddr1111", "Solana")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Pepe Classic Renamed", stored.Name)
	require.NotNil(t, stored.LogoURL)
	assert.Equal(t, "https://img.example/pepe.png", *stored.LogoURL)
	require.NotNil(t, stored.Description)
	assert.Equal(t, "now with a description", *stored.Description)

	tokens, err := repo.ListTokens(false)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestUpsertMigratedTokenSlugDisambiguation(t *testing.T) {
	repo, _ := newTestRepo(t)

	outcome, err := repo.UpsertMigratedToken(migratedToken("AAAA1111rest", "Moon Coin", "moon-coin", time.Now().UTC()))
	require.NoError(t, err)
	require.Equal(t, repository.OutcomeImported, outcome)

	clash := migratedToken("BBBB2222rest", "Moon Coin", "moon-coin", time.Now().UTC())
	outcome, err = repo.UpsertMigratedToken(clash)
	require.NoError(t, err)
	assert.Equal(t, repository.OutcomeImported, outcome)
	assert.Equal(t, "moon-coin-bbbb2222", clash.Slug)

	third := migratedToken("CCCC3333rest", "Moon Coin", "moon-coin", time.Now().UTC())
	_, err = repo.UpsertMigratedToken(third)
	require.NoError(t, err)
	assert.Equal(t, "moon-coin-cccc3333", third.Slug)
}

func TestLatestMigrationDate(t *testing.T) {
	repo, _ := newTestRepo(t)

	watermark, err := repo.LatestMigrationDate()
	require.NoError(t, err)
	assert.Nil(t, watermark)

	// manually curated tokens never move the watermark
	manualDate := time.Now().UTC()
	manual := &schema.Token{
		Name:            "Hand Entered",
		Symbol:          "HE",
		Slug:            "hand-entered",
		ContractAddress: "ManualMint",
		Chain:           "Solana",
		Migrated:        true,
		MigrationDate:   &manualDate,
	}
	require.NoError(t, repo.CreateToken(manual))

	watermark, err = repo.LatestMigrationDate()
	require.NoError(t, err)
	assert.Nil(t, watermark)

	older := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := time.Now().UTC().Truncate(time.Second)
	_, err = repo.UpsertMigratedToken(migratedToken("PipeMintOld1", "Pipe Old", "pipe-old", older))
	require.NoError(t, err)
	_, err = repo.UpsertMigratedToken(migratedToken("PipeMintNew1", "Pipe New", "pipe-new", newer))
	require.NoError(t, err)

	watermark, err = repo.LatestMigrationDate()
	require.NoError(t, err)
	require.NotNil(t, watermark)
	assert.True(t, watermark.Equal(newer))
}

func TestExistsByContract(t *testing.T) {
	repo, _ := newTestRepo(t)

	exists, err := repo.ExistsByContract("NopeMint", "Solana")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.UpsertMigratedToken(migratedToken("YesMint", "Yes Coin", "yes-coin", time.Now().UTC()))
	require.NoError(t, err)

	exists, err = repo.ExistsByContract("YesMint", "Solana")
	require.NoError(t, err)
	assert.True(t, exists)

	// the key is (contract, chain), not contract alone
	exists, err = repo.ExistsByContract("YesMint", "Ethereum")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListTokensPublishedOnly(t *testing.T) {
	repo, _ := newTestRepo(t)

	published := migratedToken("PubMint", "Published Coin", "published-coin", time.Now().UTC())
	_, err := repo.UpsertMigratedToken(published)
	require.NoError(t, err)

	draft := &schema.Token{
		Name:            "Draft Coin",
		Symbol:          "DC",
		Slug:            "draft-coin",
		ContractAddress: "DraftMint",
		Chain:           "Solana",
		Published:       false,
	}
	require.NoError(t, repo.CreateToken(draft))

	all, err := repo.ListTokens(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := repo.ListTokens(true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "published-coin", public[0].Slug)

	// without redis the public list falls straight through to the store
	cached, err := repo.ListPublished()
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "published-coin", cached[0].Slug)
}

func TestDeleteTokenCascades(t *testing.T) {
	repo, db := newTestRepo(t)

	token := migratedToken("CascadeMint", "Cascade Coin", "cascade-coin", time.Now().UTC())
	_, err := repo.UpsertMigratedToken(token)
	require.NoError(t, err)

	require.NoError(t, db.DB.Create(&schema.TokenEvent{TokenID: token.ID, Title: "Launch", Date: time.Now(), Type: "Launch"}).Error)
	require.NoError(t, db.DB.Create(&schema.TokenMedia{TokenID: token.ID, URL: "https://img.example/1.png", Type: "image"}).Error)

	require.NoError(t, repo.DeleteToken(token.ID))

	gone, err := repo.GetByContract("CascadeMint", "Solana")
	require.NoError(t, err)
	assert.Nil(t, gone)

	var events, media int64
	db.DB.Model(&schema.TokenEvent{}).Where("token_id = ?", token.ID).Count(&events)
	db.DB.Model(&schema.TokenMedia{}).Where("token_id = ?", token.ID).Count(&media)
	assert.Zero(t, events)
	assert.Zero(t, media)

	assert.Error(t, repo.DeleteToken(token.ID))
}

func TestDeleteMigratedPurgesPipelineRowsOnly(t *testing.T) {
	repo, db := newTestRepo(t)

	for _, spec := range []struct{ addr, name, slug string }{
		{"PurgeMintA", "Purge A", "purge-a"},
		{"PurgeMintB", "Purge B", "purge-b"},
	} {
		token := migratedToken(spec.addr, spec.name, spec.slug, time.Now().UTC())
		_, err := repo.UpsertMigratedToken(token)
		require.NoError(t, err)
		require.NoError(t, db.DB.Create(&schema.TokenEvent{TokenID: token.ID, Title: "Graduated", Date: time.Now(), Type: "Listing"}).Error)
	}

	manual := &schema.Token{
		Name:            "Keeper",
		Symbol:          "KP",
		Slug:            "keeper",
		ContractAddress: "KeeperMint",
		Chain:           "Solana",
		Published:       true,
	}
	require.NoError(t, repo.CreateToken(manual))

	deleted, err := repo.DeleteMigrated()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListTokens(false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "keeper", remaining[0].Slug)

	var events int64
	db.DB.Model(&schema.TokenEvent{}).Count(&events)
	assert.Zero(t, events)

	// repeat purge is a no-op
	deleted, err = repo.DeleteMigrated()
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestGetBySlugLoadsRelations(t *testing.T) {
	repo, db := newTestRepo(t)

	token := migratedToken("SlugMint", "Slug Coin", "slug-coin", time.Now().UTC())
	_, err := repo.UpsertMigratedToken(token)
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(&schema.TokenEvent{TokenID: token.ID, Title: "Launch", Date: time.Now(), Type: "Launch"}).Error)

	loaded, err := repo.GetBySlug("slug-coin")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Slug Coin", loaded.Name)
	assert.Len(t, loaded.Events, 1)

	missing, err := repo.GetBySlug("no-such-slug")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
