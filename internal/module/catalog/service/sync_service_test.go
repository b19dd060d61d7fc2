package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/memelore/meme-token-catalog/internal/database"
	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	svc    service.SyncService
	repo   repository.TokenRepository
	db     *database.Database
	server *httptest.Server

	mu       sync.Mutex
	feedBody string
}

func (f *syncFixture) setFeed(t *testing.T, records []map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	f.mu.Lock()
	f.feedBody = string(data)
	f.mu.Unlock()
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	fixture := &syncFixture{feedBody: "[]"}
	fixture.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/coins/") {
			http.NotFound(w, r)
			return
		}
		fixture.mu.Lock()
		body := fixture.feedBody
		fixture.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(fixture.server.Close)

	cfg := shared.SetupTestCfg()
	require.NoError(t, cfg.Set("sync.graduated-url", fixture.server.URL+"/graduated"))
	require.NoError(t, cfg.Set("sync.metadata-url", fixture.server.URL+"/coins"))
	require.NoError(t, cfg.Set("sync.record-delay", "0s"))

	logger := zerolog.New(nil)
	fixture.db = shared.SetupTestDB()
	fixture.repo = repository.NewTokenRepository(fixture.db, logger, nil)
	pumpFun := service.NewPumpFunService(cfg, nil, logger)
	fixture.svc = service.NewSyncService(cfg, pumpFun, fixture.repo, logger)
	return fixture
}

func feedRecord(mint, name string, ts time.Time) map[string]interface{} {
	return map[string]interface{}{
		"mint":         mint,
		"name":         name,
		"symbol":       strings.ToUpper(strings.Split(name, " ")[0]),
		"creationTime": float64(ts.Unix()),
	}
}

func TestSyncMigratedBaselineSafety(t *testing.T) {
	fixture := newSyncFixture(t)
	fixture.setFeed(t, []map[string]interface{}{
		feedRecord("FunCoinMint111111111111111111111111111pump", "Fun Coin", time.Now().Add(-5*time.Second)),
	})

	// automated trigger on an empty store must not import anything
	report, err := fixture.svc.SyncMigrated(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Checked)
	assert.Contains(t, report.Message, "manual baseline sync")

	// a manual baseline run establishes the watermark
	report, err = fixture.svc.SyncMigrated(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 0, report.Errors)

	token, err := fixture.repo.GetByContract("FunCoinMint111111111111111111111111111pump", "Solana")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "fun-coin", token.Slug)
	assert.Equal(t, "Fun Coin", token.Name)
	assert.True(t, token.Published)
	assert.True(t, token.Migrated)
	assert.True(t, token.IsPumpFun)
	require.NotNil(t, token.MigrationDate)
}

func TestSyncMigratedIdempotent(t *testing.T) {
	fixture := newSyncFixture(t)
	fixture.setFeed(t, []map[string]interface{}{
		feedRecord("FunCoinMint111111111111111111111111111pump", "Fun Coin", time.Now().Add(-5*time.Second)),
	})

	report, err := fixture.svc.SyncMigrated(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)

	// same feed again: the record is inside the watermark buffer, so it is
	// admitted as a candidate but skipped at the existence check
	report, err = fixture.svc.SyncMigrated(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.New)
	assert.Equal(t, 1, report.SkippedExisting)

	tokens, err := fixture.repo.ListTokens(false)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestSyncMigratedWatermarkFiltersOld(t *testing.T) {
	fixture := newSyncFixture(t)

	now := time.Now().UTC()
	dex := "PumpSwap"
	existing := &schema.Token{
		Name:            "Watermark Holder",
		Symbol:          "WM",
		Slug:            "watermark-holder",
		ContractAddress: "WatermarkMint1111111111111111111111111pump",
		Chain:           "Solana",
		IsPumpFun:       true,
		Migrated:        true,
		MigrationDate:   &now,
		MigrationDex:    &dex,
		Published:       true,
	}
	require.NoError(t, fixture.repo.CreateToken(existing))

	fixture.setFeed(t, []map[string]interface{}{
		feedRecord("OldCoinMint11111111111111111111111111pump", "Old Coin", now.Add(-2*time.Minute)),
		feedRecord("FreshCoinMint111111111111111111111111pump", "Fresh Coin", now.Add(-10*time.Second)),
	})

	report, err := fixture.svc.SyncMigrated(context.Background(), false)
	require.NoError(t, err)

	// the old record falls behind watermark minus buffer; the fresh one lands
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.New)
	assert.Equal(t, 1, report.Imported)

	old, err := fixture.repo.GetByContract("OldCoinMint11111111111111111111111111pump", "Solana")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestSyncMigratedMissingAddress(t *testing.T) {
	fixture := newSyncFixture(t)
	fixture.setFeed(t, []map[string]interface{}{
		{"name": "Ghost Coin", "creationTime": float64(time.Now().Unix())},
	})

	report, err := fixture.svc.SyncMigrated(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Errors)
	require.NotEmpty(t, report.ErrorDetails)
	assert.Contains(t, report.ErrorDetails[0], "missing mint address")
}

func TestSyncMigratedSlugCollision(t *testing.T) {
	fixture := newSyncFixture(t)

	now := time.Now()
	fixture.setFeed(t, []map[string]interface{}{
		feedRecord("AAAA1111MoonMint1111111111111111111111pump", "Moon Coin", now.Add(-5*time.Second)),
		feedRecord("BBBB2222MoonMint2222222222222222222222pump", "Moon Coin", now.Add(-10*time.Second)),
	})

	report, err := fixture.svc.SyncMigrated(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Errors)

	first, err := fixture.repo.GetByContract("AAAA1111MoonMint1111111111111111111111pump", "Solana")
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := fixture.repo.GetByContract("BBBB2222MoonMint2222222222222222222222pump", "Solana")
	require.NoError(t, err)
	require.NotNil(t, second)

	// newest-first processing gives the newer token the clean slug
	assert.Equal(t, "moon-coin", first.Slug)
	assert.Equal(t, "moon-coin-bbbb2222", second.Slug)
}

func TestSyncMigratedBatchCap(t *testing.T) {
	fixture := newSyncFixture(t)

	now := time.Now()
	fixture.setFeed(t, []map[string]interface{}{
		feedRecord("CapMintA11111111111111111111111111111pump", "Cap A", now.Add(-1*time.Second)),
		feedRecord("CapMintB22222222222222222222222222222pump", "Cap B", now.Add(-2*time.Second)),
		feedRecord("CapMintC33333333333333333333333333333pump", "Cap C", now.Add(-3*time.Second)),
	})

	cfg := shared.SetupTestCfg()
	require.NoError(t, cfg.Set("sync.graduated-url", fixture.server.URL+"/graduated"))
	require.NoError(t, cfg.Set("sync.metadata-url", fixture.server.URL+"/coins"))
	require.NoError(t, cfg.Set("sync.record-delay", "0s"))
	require.NoError(t, cfg.Set("sync.max-batch", 2))

	logger := zerolog.New(nil)
	pumpFun := service.NewPumpFunService(cfg, nil, logger)
	svc := service.NewSyncService(cfg, pumpFun, fixture.repo, logger)

	report, err := svc.SyncMigrated(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.New)
	assert.Equal(t, 2, report.Imported)

	// the two newest made the cut
	a, _ := fixture.repo.GetByContract("CapMintA11111111111111111111111111111pump", "Solana")
	b, _ := fixture.repo.GetByContract("CapMintB22222222222222222222222222222pump", "Solana")
	c, _ := fixture.repo.GetByContract("CapMintC33333333333333333333333333333pump", "Solana")
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.Nil(t, c)
}

func TestSyncMigratedEmptyFeed(t *testing.T) {
	fixture := newSyncFixture(t)

	report, err := fixture.svc.SyncMigrated(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
	assert.Equal(t, "No graduated tokens found", report.Message)
}

func TestSyncMigratedUpstreamDown(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	cfg := shared.SetupTestCfg()
	require.NoError(t, cfg.Set("sync.graduated-url", broken.URL+"/graduated"))
	require.NoError(t, cfg.Set("sync.metadata-url", broken.URL+"/coins"))

	logger := zerolog.New(nil)
	db := shared.SetupTestDB()
	repo := repository.NewTokenRepository(db, logger, nil)
	pumpFun := service.NewPumpFunService(cfg, nil, logger)
	svc := service.NewSyncService(cfg, pumpFun, repo, logger)

	report, err := svc.SyncMigrated(context.Background(), false)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, service.ErrUpstreamUnavailable)
}
