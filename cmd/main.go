package main

import (
	"go.uber.org/fx"

	"github.com/memelore/meme-token-catalog/internal/application"
	"github.com/memelore/meme-token-catalog/internal/bootstrap"
	"github.com/memelore/meme-token-catalog/internal/database"
	"github.com/memelore/meme-token-catalog/internal/module/catalog"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/memelore/meme-token-catalog/internal/module/scheduler"

	"github.com/memelore/meme-token-catalog/internal/module/shared"
	"github.com/memelore/meme-token-catalog/internal/router"
	fxzerolog "github.com/efectn/fx-zerolog"
	_ "go.uber.org/automaxprocs"
)

func main() {
	fx.New(
		/* provide patterns */
		// basic
		shared.NewSharedModule,
		scheduler.NewSchedulerModule,
		// application
		fx.Provide(application.NewApplication),
		// database
		fx.Provide(database.NewDatabase),
		// router
		fx.Provide(router.NewRouter),
		//rate limit
		fx.Provide(service.NewRateLimiterService),
		/* provide modules */
		catalog.NewCatalogModule,
		// start aplication
		fx.Invoke(bootstrap.Start),
		// define logger
		fx.WithLogger(fxzerolog.Init()),
		// invoke scheduler tasks
		fx.Invoke(func(s *scheduler.Scheduler) {
			go s.StartSyncMigratedTokens()
			go s.StartRefreshTokensCache()
		}),
	).Run()
}
