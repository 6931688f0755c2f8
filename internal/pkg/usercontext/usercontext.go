package usercontext

import "github.com/gofiber/fiber/v2"

// ContextKey is the fiber Locals key carrying the tenant context.
const ContextKey = "TENANT_CONTEXT"

// TenantContext represents the caller's identity for a request: the tenant
// it acts for and the role the identity provider vouched for.
type TenantContext struct {
	TenantID     string `json:"tenant_id"`
	Role         string `json:"role"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// GetTenantContext retrieves the tenant context from fiber context.
// Returns an empty anonymous context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{}
}

// GetTenantID returns the current tenant id, or empty string.
func GetTenantID(c *fiber.Ctx) string {
	return GetTenantContext(c).TenantID
}

// IsSuperAdmin checks if the caller holds the super_admin role.
func IsSuperAdmin(c *fiber.Ctx) bool {
	return GetTenantContext(c).IsSuperAdmin
}
