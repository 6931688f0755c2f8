package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/LennySnaider/pymebot-core/internal/api/v1"
	"github.com/LennySnaider/pymebot-core/internal/pkg/middleware"
)

// SetupAPIRoutes registers the v1 API surface. Gating endpoints are open
// to any annotated caller; plan administration requires super_admin.
func SetupAPIRoutes(app *fiber.App, server *apiv1.APIServer, provider middleware.IdentityProvider) {
	api := app.Group("/api/v1", middleware.TenantContextMiddleware(provider))

	api.Get("/ping", server.GetPing)

	// Gating endpoints, safe on every render path
	api.Get("/tenants/:tenantID/permissions", server.GetTenantPermissions)
	api.Get("/tenants/:tenantID/verticals/:code/access", server.GetVerticalAccess)
	api.Get("/tenants/:tenantID/verticals/:code/modules/:module/access", server.GetModuleAccess)
	api.Get("/tenants/:tenantID/verticals/:code/modules/:module/restrictions", server.GetModuleRestrictions)
	api.Get("/tenants/:tenantID/features/:feature/access", server.GetFeatureAccess)

	// Vertical initialization, once per route/tenant session
	api.Post("/verticals/:code/initialize", server.PostInitializeVertical)
	api.Post("/verticals/initialize", server.PostInitializeVerticals)
	api.Get("/registry/verticals", server.GetRegistry)
	api.Get("/registry/verticals/:code/modules/:module", server.GetRegistryModule)

	// Plan administration
	admin := api.Group("/", middleware.RequireSuperAdmin())
	admin.Post("/types/:targetID/clone-settings", server.PostCloneTypeSettings)
	admin.Post("/plans/:planID/sync", server.PostPlanSync)
	admin.Get("/plans/compare", server.GetComparePlans)
	admin.Get("/sync-events/:eventID", server.GetSyncEvent)
	admin.Post("/tenants/:tenantID/plan", server.PostTenantPlanChange)
	admin.Post("/admin/resync", server.PostResyncAll)
}
