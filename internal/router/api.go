package router

import (
	"github.com/memelore/meme-token-catalog/internal/module/catalog"
)

type Router struct {
	CatalogRouter *catalog.CatalogRouter
}

func NewRouter(
	catalogRouter *catalog.CatalogRouter,
) *Router {
	return &Router{
		CatalogRouter: catalogRouter,
	}
}

// Register routes
func (r *Router) Register() {
	// Register routes of modules
	r.CatalogRouter.RegisterTokenRoutes()
	r.CatalogRouter.RegisterSyncRoutes()
}
