package apiv1

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/capability"
	"github.com/LennySnaider/pymebot-core/internal/pkg/initializer"
	"github.com/LennySnaider/pymebot-core/internal/pkg/permission"
	"github.com/LennySnaider/pymebot-core/internal/pkg/plansync"
	"github.com/LennySnaider/pymebot-core/internal/pkg/syncqueue"
	"github.com/LennySnaider/pymebot-core/internal/pkg/usercontext"
	"github.com/LennySnaider/pymebot-core/internal/pkg/vertical"
)

// APIServer exposes the capability engine to its consumer layer. Gating
// endpoints are safe to call on every render path; they never hard-fail.
type APIServer struct {
	resolver    *permission.Resolver
	types       *vertical.Service
	initializer *initializer.Service
	syncer      *plansync.Service
	queue       *syncqueue.Queue
	registry    *capability.Registry
}

// NewAPIServer creates a new API server instance
func NewAPIServer(
	resolver *permission.Resolver,
	types *vertical.Service,
	init *initializer.Service,
	syncer *plansync.Service,
	queue *syncqueue.Queue,
	registry *capability.Registry,
) *APIServer {
	return &APIServer{
		resolver:    resolver,
		types:       types,
		initializer: init,
		syncer:      syncer,
		queue:       queue,
		registry:    registry,
	}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetTenantPermissions returns the effective permission set for a tenant.
func (s *APIServer) GetTenantPermissions(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")
	role := c.Query("role")
	scope := c.Query("scope")
	resp := s.resolver.GetTenantPermissions(c.UserContext(), tenantID, role, scope)
	return c.JSON(resp)
}

// GetVerticalAccess reports whether the tenant may use a vertical.
func (s *APIServer) GetVerticalAccess(c *fiber.Ctx) error {
	granted := s.resolver.HasVerticalAccess(c.UserContext(), c.Params("tenantID"), c.Params("code"))
	return c.JSON(fiber.Map{"granted": granted})
}

// GetModuleAccess reports whether the tenant may use a module.
func (s *APIServer) GetModuleAccess(c *fiber.Ctx) error {
	granted := s.resolver.HasModuleAccess(c.UserContext(), c.Params("tenantID"), c.Params("code"), c.Params("module"))
	return c.JSON(fiber.Map{"granted": granted})
}

// GetFeatureAccess reports whether a feature flag is active for the tenant.
func (s *APIServer) GetFeatureAccess(c *fiber.Ctx) error {
	granted := s.resolver.HasFeatureAccess(c.UserContext(), c.Params("tenantID"), c.Params("feature"))
	return c.JSON(fiber.Map{"granted": granted})
}

// GetModuleRestrictions returns the restriction map of a granted module,
// or 404 when the module is not granted.
func (s *APIServer) GetModuleRestrictions(c *fiber.Ctx) error {
	restrictions := s.resolver.GetModuleRestrictions(c.UserContext(), c.Params("tenantID"), c.Params("code"), c.Params("module"))
	if restrictions == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "module not granted or has no restrictions",
		})
	}
	return c.JSON(restrictions)
}

// PostInitializeVertical loads and registers a vertical for the caller.
func (s *APIServer) PostInitializeVertical(c *fiber.Ctx) error {
	var body struct {
		ForceRefresh bool   `json:"force_refresh"`
		TypeCode     string `json:"type_code"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	ok, err := s.initializer.InitializeVertical(c.UserContext(), c.Params("code"), initializer.Options{
		TenantID:     usercontext.GetTenantID(c),
		ForceRefresh: body.ForceRefresh,
		TypeCode:     body.TypeCode,
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return notFound(c, err.Error())
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"initialized": ok})
}

// PostInitializeVerticals initializes several verticals at once and returns
// a per-code result map.
func (s *APIServer) PostInitializeVerticals(c *fiber.Ctx) error {
	var body struct {
		Codes        []string `json:"codes"`
		ForceRefresh bool     `json:"force_refresh"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.Codes) == 0 {
		return badRequest(c, "codes list required")
	}

	results := s.initializer.InitializeVerticals(c.UserContext(), body.Codes, initializer.Options{
		TenantID:     usercontext.GetTenantID(c),
		ForceRefresh: body.ForceRefresh,
	})
	return c.JSON(results)
}

// PostCloneTypeSettings copies the default-settings template from a source
// type onto the target type, replacing the target's settings wholesale.
func (s *APIServer) PostCloneTypeSettings(c *fiber.Ctx) error {
	targetID, err := strconv.ParseUint(c.Params("targetID"), 10, 32)
	if err != nil {
		return badRequest(c, "invalid target type id")
	}
	var body struct {
		SourceTypeID uint `json:"source_type_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.SourceTypeID == 0 {
		return badRequest(c, "source_type_id required")
	}

	t, err := s.types.CloneTypeSettings(c.UserContext(), body.SourceTypeID, uint(targetID))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return notFound(c, err.Error())
		}
		return serverError(c, err)
	}
	return c.JSON(t)
}

// PostPlanSync enqueues a plan-change propagation and returns the queued
// event so the caller can poll its progress.
func (s *APIServer) PostPlanSync(c *fiber.Ctx) error {
	planID, err := strconv.ParseUint(c.Params("planID"), 10, 32)
	if err != nil {
		return badRequest(c, "invalid plan id")
	}
	var body struct {
		Changes []plansync.ModuleChange `json:"changes"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	event, err := s.queue.Enqueue(c.UserContext(), uint(planID), body.Changes)
	if err != nil {
		return serverError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(event)
}

// GetSyncEvent returns the stored state of a queued sync event.
func (s *APIServer) GetSyncEvent(c *fiber.Ctx) error {
	event, err := s.queue.GetEvent(c.UserContext(), c.Params("eventID"))
	if err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(event)
}

// PostTenantPlanChange moves a single tenant to a new plan and resyncs its
// permissions.
func (s *APIServer) PostTenantPlanChange(c *fiber.Ctx) error {
	var body struct {
		PlanID uint `json:"plan_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.PlanID == 0 {
		return badRequest(c, "plan_id required")
	}

	if err := s.syncer.SyncTenantPlanChange(c.UserContext(), c.Params("tenantID"), body.PlanID); err != nil {
		if apperrors.IsNotFound(err) {
			return notFound(c, err.Error())
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"synced": true})
}

// GetComparePlans returns the delta between two plans.
func (s *APIServer) GetComparePlans(c *fiber.Ctx) error {
	currentID, err1 := strconv.ParseUint(c.Query("current"), 10, 32)
	newID, err2 := strconv.ParseUint(c.Query("new"), 10, 32)
	if err1 != nil || err2 != nil {
		return badRequest(c, "current and new plan ids required")
	}

	cmp, err := s.resolver.ComparePlans(uint(currentID), uint(newID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notFound(c, err.Error())
		}
		return serverError(c, err)
	}
	return c.JSON(cmp)
}

// PostResyncAll rebuilds permission state for every active tenant.
func (s *APIServer) PostResyncAll(c *fiber.Ctx) error {
	result, err := s.syncer.ResyncAllTenants(c.UserContext())
	if err != nil && !errors.Is(err, apperrors.ErrPartialSync) {
		return serverError(c, err)
	}
	// Partial failures surface as a tally, not a hard error; the caller
	// decides whether to retry the failed subset.
	return c.JSON(result)
}

// GetRegistry lists the registered vertical definitions. The module count
// covers the whole forest, nested submodules included.
func (s *APIServer) GetRegistry(c *fiber.Ctx) error {
	defs := s.registry.AllVerticals()
	out := make([]fiber.Map, 0, len(defs))
	for _, def := range defs {
		out = append(out, fiber.Map{
			"code":     def.Vertical.Code,
			"name":     def.Vertical.Name,
			"category": def.Category,
			"modules":  len(models.FlattenModules(def.Modules)),
			"types":    len(def.Types),
		})
	}
	return c.JSON(out)
}

// GetRegistryModule returns one module definition from a registered
// vertical, located by code anywhere in the module forest.
func (s *APIServer) GetRegistryModule(c *fiber.Ctx) error {
	m, ok := s.registry.FindModule(c.Params("code"), c.Params("module"))
	if !ok {
		return notFound(c, "module not registered")
	}
	return c.JSON(m)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": msg})
}

func serverError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
}
