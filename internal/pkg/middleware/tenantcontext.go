package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/internal/pkg/usercontext"
)

// IdentityProvider resolves the caller's tenant and role from the request,
// typically by validating a session or service token.
type IdentityProvider interface {
	Resolve(c *fiber.Ctx) (usercontext.TenantContext, error)
}

// TenantContextMiddleware annotates each request with the caller's tenant
// context. When the identity provider fails, the caller's own tenant
// headers are used as defaults instead of failing closed, so a provider
// outage degrades to header-trust rather than a hard 500.
func TenantContextMiddleware(provider IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tc usercontext.TenantContext
		if provider != nil {
			resolved, err := provider.Resolve(c)
			if err == nil {
				tc = resolved
			} else {
				log.Warnf("[Middleware] identity provider failed, falling back to headers: %v", err)
				tc = contextFromHeaders(c)
			}
		} else {
			tc = contextFromHeaders(c)
		}

		c.Locals(usercontext.ContextKey, tc)
		return c.Next()
	}
}

// RequireSuperAdmin rejects requests whose caller is not a super admin.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.IsSuperAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "super_admin role required",
			})
		}
		return c.Next()
	}
}

func contextFromHeaders(c *fiber.Ctx) usercontext.TenantContext {
	role := strings.TrimSpace(c.Get("X-Tenant-Role"))
	return usercontext.TenantContext{
		TenantID:     strings.TrimSpace(c.Get("X-Tenant-ID")),
		Role:         role,
		IsSuperAdmin: role == models.RoleSuperAdmin,
	}
}
