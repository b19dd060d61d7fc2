package catalog

import (
	"github.com/memelore/meme-token-catalog/internal/application"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/controller"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/middleware"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/repository"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// struct of CatalogRouter
type CatalogRouter struct {
	App                *application.Application
	Controller         *controller.Controller
	RateLimiterService *service.RateLimiterService
	Logger             zerolog.Logger
}

// register bulky of catalog module
var NewCatalogModule = fx.Options(
	// register repository of catalog module
	fx.Provide(repository.NewTokenRepository),

	fx.Provide(service.NewPumpFunService),
	fx.Provide(service.NewDexScreenerService),
	fx.Provide(service.NewSyncService),
	fx.Provide(service.NewImportService),
	fx.Provide(service.NewTokensService),

	// register controller of catalog module
	fx.Provide(controller.NewController),

	fx.Provide(NewCatalogRouter),
)

// init CatalogRouter
func NewCatalogRouter(app *application.Application, controller *controller.Controller, rateLimiterService *service.RateLimiterService, logger zerolog.Logger) *CatalogRouter {
	return &CatalogRouter{
		App:                app,
		Controller:         controller,
		RateLimiterService: rateLimiterService,
		Logger:             logger,
	}
}

// register routes of catalog module
func (_i *CatalogRouter) RegisterTokenRoutes() {
	tokensController := _i.Controller.Tokens

	rateLimitMiddleware := middleware.RateLimitMiddleware(_i.RateLimiterService, _i.Logger)

	_i.App.Router.GET("/tokens", rateLimitMiddleware(tokensController.ListPublishedTokens))
	_i.App.Router.GET("/tokens/{slug}", rateLimitMiddleware(tokensController.GetTokenBySlug))

	_i.App.Router.GET("/admin/tokens", tokensController.ListAllTokens)
	_i.App.Router.POST("/admin/tokens", tokensController.CreateToken)
	_i.App.Router.POST("/admin/tokens/update/{id}", tokensController.UpdateToken)
	_i.App.Router.POST("/admin/tokens/delete/{id}", tokensController.DeleteToken)
	_i.App.Router.POST("/admin/tokens/publish/{id}", tokensController.PublishToken)

	_i.App.Router.GET("/k8s/healthz", tokensController.CheckhHealthz)
}

func (_i *CatalogRouter) RegisterSyncRoutes() {
	syncController := _i.Controller.Sync

	rateLimitMiddleware := middleware.RateLimitMiddleware(_i.RateLimiterService, _i.Logger)

	_i.App.Router.GET("/migrated/sync", rateLimitMiddleware(syncController.AutoSync))
	_i.App.Router.POST("/migrated/sync", rateLimitMiddleware(syncController.BaselineSync))
	_i.App.Router.POST("/migrated/import", rateLimitMiddleware(syncController.ImportByAddress))
	_i.App.Router.DELETE("/admin/tokens/migrated", syncController.DeleteMigrated)
}
