package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newImportFixture wires an import service against stub upstreams. pumpFunBody
// and dexBody empty mean 404 from that source.
func newImportFixture(t *testing.T, pumpFunBody, dexBody string) (service.ImportService, repository.TokenRepository) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch {
		case strings.HasPrefix(r.URL.Path, "/coins/"):
			body = pumpFunBody
		case strings.HasPrefix(r.URL.Path, "/dex/"):
			body = dexBody
		}
		if body == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cfg := shared.SetupTestCfg()
	require.NoError(t, cfg.Set("sync.metadata-url", server.URL+"/coins"))
	require.NoError(t, cfg.Set("sync.dexscreener-url", server.URL+"/dex"))

	logger := zerolog.New(nil)
	repo := repository.NewTokenRepository(shared.SetupTestDB(), logger, nil)
	pumpFun := service.NewPumpFunService(cfg, nil, logger)
	dex := service.NewDexScreenerService(cfg, logger)
	return service.NewImportService(cfg, pumpFun, dex, repo, logger), repo
}

func TestImportByAddressFromLaunchPlatform(t *testing.T) {
	svc, repo := newImportFixture(t, `{"name":"Fun Coin","symbol":"FUN","description":"so fun"}`, "")

	token, created, err := svc.ImportByAddress(context.Background(), "FunMint111", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Fun Coin", token.Name)
	assert.Equal(t, "fun-coin", token.Slug)

	stored, err := repo.GetByContract("FunMint111", "Solana")
	require.NoError(t, err)
	require.NotNil(t, stored)
	// ad-hoc imports land as unpublished drafts
	assert.False(t, stored.Published)
	require.NotNil(t, stored.MigrationDex)
	assert.Equal(t, "PumpSwap", *stored.MigrationDex)
}

func TestImportByAddressFallsBackToDexScreener(t *testing.T) {
	dexBody := `{"pairs":[{"baseToken":{"address":"DexMint222","name":"Dex Coin","symbol":"DEX","logoURI":"https://img.example/dex.png"}}]}`
	svc, repo := newImportFixture(t, "", dexBody)

	token, created, err := svc.ImportByAddress(context.Background(), "DexMint222", "Raydium")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Dex Coin", token.Name)
	require.NotNil(t, token.LogoURL)
	assert.Equal(t, "https://img.example/dex.png", *token.LogoURL)

	stored, err := repo.GetByContract("DexMint222", "Solana")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.MigrationDex)
	assert.Equal(t, "Raydium", *stored.MigrationDex)
}

func TestImportByAddressNoSourceKnowsIt(t *testing.T) {
	svc, _ := newImportFixture(t, "", "")

	token, created, err := svc.ImportByAddress(context.Background(), "UnknownMint", "")
	assert.ErrorIs(t, err, service.ErrTokenDataNotFound)
	assert.False(t, created)
	assert.Nil(t, token)
}

func TestImportByAddressUpdatesExisting(t *testing.T) {
	svc, repo := newImportFixture(t, `{"name":"Fun Coin","symbol":"FUN"}`, "")

	_, created, err := svc.ImportByAddress(context.Background(), "FunMint111", "")
	require.NoError(t, err)
	require.True(t, created)

	// publish it, then re-import: the update must not unpublish the row
	stored, err := repo.GetByContract("FunMint111", "Solana")
	require.NoError(t, err)
	stored.Published = true
	require.NoError(t, repo.UpdateToken(stored))

	_, created, err = svc.ImportByAddress(context.Background(), "FunMint111", "")
	require.NoError(t, err)
	assert.False(t, created)

	stored, err = repo.GetByContract("FunMint111", "Solana")
	require.NoError(t, err)
	assert.True(t, stored.Published)
}

func TestImportByAddressRequiresAddress(t *testing.T) {
	svc, _ := newImportFixture(t, "", "")

	_, _, err := svc.ImportByAddress(context.Background(), "   ", "")
	assert.Error(t, err)
}
