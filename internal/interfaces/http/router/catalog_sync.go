package router

import (
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// NewCatalogSyncGroup declares the catalog sync routes. Granting syncs
// requires the admin permission; everything else is scoped to the caller.
func NewCatalogSyncGroup(h *handler.CatalogSyncHandler, permCfg middleware.PermissionConfig) *DomainGroup {
	g := NewDomainGroup("catalog-sync", "/catalog-sync")

	g.POST("/preview", h.Preview)
	g.POST("/apply", h.Apply)

	g.GET("/history", h.ListHistory)
	g.GET("/history/:id", h.GetReport)
	g.GET("/history/:id/report", h.DownloadReport)

	g.GET("/quota", h.GetQuota)
	g.POST("/accounts/:user_id/grant",
		middleware.RequirePermissionWithConfig(auth.PermissionCatalogSyncAdmin, permCfg),
		h.GrantSyncs,
	)

	g.GET("/stores", h.ListStores)
	g.POST("/stores", h.RegisterStore)

	return g
}

// NewSystemGroup declares authenticated system routes
func NewSystemGroup(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo)
}

