package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type SyncController interface {
	AutoSync(ctx *fasthttp.RequestCtx)
	BaselineSync(ctx *fasthttp.RequestCtx)
	ImportByAddress(ctx *fasthttp.RequestCtx)
	DeleteMigrated(ctx *fasthttp.RequestCtx)
}

type syncController struct {
	syncService   service.SyncService
	importService service.ImportService
	tokensService service.TokensService
	logger        zerolog.Logger
}

func NewSyncController(syncService service.SyncService, importService service.ImportService, tokensService service.TokensService, logger zerolog.Logger) SyncController {
	return &syncController{
		syncService:   syncService,
		importService: importService,
		tokensService: tokensService,
		logger:        logger,
	}
}

func (c *syncController) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.Error("Failed to serialize response ", fasthttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBody(body)
}

// AutoSync is the automated trigger: baseline-safe, returns the run report.
func (c *syncController) AutoSync(ctx *fasthttp.RequestCtx) {
	c.runSync(ctx, false)
}

// BaselineSync is the manual operator trigger that may establish a watermark
// on an empty store.
func (c *syncController) BaselineSync(ctx *fasthttp.RequestCtx) {
	c.runSync(ctx, true)
}

func (c *syncController) runSync(ctx *fasthttp.RequestCtx, baseline bool) {
	report, err := c.syncService.SyncMigrated(ctx, baseline)
	if err != nil {
		c.logger.Error().Err(err).Msg("Sync run failed")
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, service.ErrUpstreamUnavailable) {
			status = fasthttp.StatusBadGateway
		}
		c.respondJSON(ctx, status, map[string]interface{}{
			"error":   "Sync failed",
			"message": err.Error(),
		})
		return
	}

	c.respondJSON(ctx, fasthttp.StatusOK, report)
}

func (c *syncController) ImportByAddress(ctx *fasthttp.RequestCtx) {
	var body struct {
		ContractAddress string `json:"contractAddress"`
		MigrationDex    string `json:"migrationDex"`
	}
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		c.respondJSON(ctx, fasthttp.StatusBadRequest, map[string]interface{}{
			"error": "Failed to parse request body",
		})
		return
	}
	if body.ContractAddress == "" {
		c.respondJSON(ctx, fasthttp.StatusBadRequest, map[string]interface{}{
			"error": "Contract address is required",
		})
		return
	}

	token, created, err := c.importService.ImportByAddress(ctx, body.ContractAddress, body.MigrationDex)
	if err != nil {
		if errors.Is(err, service.ErrTokenDataNotFound) {
			c.respondJSON(ctx, fasthttp.StatusNotFound, map[string]interface{}{
				"error": "Could not fetch token data. Please add manually.",
			})
			return
		}
		c.logger.Error().Err(err).Msgf("Failed to import token %s", body.ContractAddress)
		c.respondJSON(ctx, fasthttp.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to import token",
		})
		return
	}

	message := "Token updated"
	if created {
		message = "Token imported successfully"
	}
	c.respondJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": message,
		"token":   token,
	})
}

func (c *syncController) DeleteMigrated(ctx *fasthttp.RequestCtx) {
	deleted, err := c.tokensService.DeleteMigrated()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to delete migrated tokens")
		c.respondJSON(ctx, fasthttp.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to delete migrated tokens",
		})
		return
	}

	c.respondJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Deleted %d migrated tokens", deleted),
		"deleted": deleted,
	})
}
