package controller

import (
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/rs/zerolog"
)

type Controller struct {
	Tokens TokensController
	Sync   SyncController
}

func NewController(
	tokensService service.TokensService,
	syncService service.SyncService,
	importService service.ImportService,
	logger zerolog.Logger) *Controller {
	return &Controller{
		Tokens: NewTokensController(tokensService),
		Sync:   NewSyncController(syncService, importService, tokensService, logger),
	}
}
