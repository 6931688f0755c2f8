package permission

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LennySnaider/pymebot-core/app/repository"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/authority"
	"github.com/LennySnaider/pymebot-core/internal/pkg/cache"
)

// DashboardVertical is the home vertical every tenant keeps. A transient
// failure must never lock a tenant out of its home screen, so this code is
// treated specially throughout the resolver.
const DashboardVertical = "dashboard"

// DegradedReason explains why a read fell back to the default permission
// set. The public API collapses it away, but keeping it explicit makes the
// degrade-on-failure decision visible and testable.
type DegradedReason int

const (
	DegradedNone DegradedReason = iota
	DegradedNotFound
	DegradedForbidden
	DegradedTransport
)

// Resolver computes effective permission state for tenants, caching reads
// and degrading to conservative defaults when the authority is unreachable.
type Resolver struct {
	authority authority.Client
	plans     repository.PlanRepository
	cache     *cache.Cache
}

// NewResolver creates a permission resolver.
func NewResolver(client authority.Client, plans repository.PlanRepository, c *cache.Cache) *Resolver {
	return &Resolver{authority: client, plans: plans, cache: c}
}

// DefaultPermissions is the restrictive-but-usable fallback: dashboard
// only, no features.
func DefaultPermissions() *authority.PermissionsResponse {
	return &authority.PermissionsResponse{
		Verticals: []authority.VerticalAccess{
			{
				VerticalCode: DashboardVertical,
				Enabled:      true,
				Modules: []authority.ModuleAccess{
					{ModuleCode: DashboardVertical, Enabled: true},
				},
			},
		},
		Features: []string{},
	}
}

// EnsureValidStructure is the single choke point through which every
// authority response passes before it is trusted or cached. It guarantees
// non-nil slices and that the dashboard vertical is present even when the
// authority returns an empty or malformed body.
func EnsureValidStructure(raw *authority.PermissionsResponse) *authority.PermissionsResponse {
	if raw == nil {
		return DefaultPermissions()
	}
	if raw.Verticals == nil {
		raw.Verticals = []authority.VerticalAccess{}
	}
	if raw.Features == nil {
		raw.Features = []string{}
	}
	if raw.FindVertical(DashboardVertical) == nil {
		raw.Verticals = append([]authority.VerticalAccess{
			{
				VerticalCode: DashboardVertical,
				Enabled:      true,
				Modules: []authority.ModuleAccess{
					{ModuleCode: DashboardVertical, Enabled: true},
				},
			},
		}, raw.Verticals...)
	}
	return raw
}

func snapshotKey(tenantID, role, scope string) string {
	return fmt.Sprintf("perm:%s:snapshot:%s:%s", tenantID, role, scope)
}

// GetTenantPermissions returns the effective permission set for a tenant,
// optionally filtered by role and vertical scope. It never returns an
// error: authority failures degrade to the default set.
func (r *Resolver) GetTenantPermissions(ctx context.Context, tenantID, role, scope string) *authority.PermissionsResponse {
	resp, _ := r.resolve(ctx, tenantID, role, scope)
	return resp
}

// resolve is the internal read path. The degraded reason is surfaced so
// derived checks and tests can observe why a fallback happened.
func (r *Resolver) resolve(ctx context.Context, tenantID, role, scope string) (*authority.PermissionsResponse, DegradedReason) {
	key := snapshotKey(tenantID, role, scope)
	if v, ok := r.cache.Get(key); ok {
		return v.(*authority.PermissionsResponse), DegradedNone
	}

	resp, err := r.authority.GetTenantPermissions(ctx, tenantID, role, scope)
	if err == nil {
		resp = EnsureValidStructure(resp)
		r.cache.Set(key, resp, cache.PermissionTTL)
		return resp, DegradedNone
	}

	switch {
	case apperrors.IsNotFound(err):
		// Authority does not know the tenant. Return the default set and
		// do not cache it, so the next call re-attempts the read.
		log.Warnf("[Permission] tenant %s unknown to authority, using defaults", tenantID)
		return DefaultPermissions(), DegradedNotFound
	case apperrors.IsAccessDenied(err):
		log.Warnf("[Permission] authority denied read for tenant %s, using defaults", tenantID)
		return DefaultPermissions(), DegradedForbidden
	default:
		// Transport failure. Cache the fallback briefly so a flapping
		// authority is retried soon instead of hammered on every render.
		log.Errorf("[Permission] authority read failed for tenant %s: %v", tenantID, err)
		fallback := DefaultPermissions()
		r.cache.Set(key, fallback, cache.DegradedTTL)
		return fallback, DegradedTransport
	}
}

// HasVerticalAccess reports whether a tenant may use a vertical. Dashboard
// access defaults to true on any failure.
func (r *Resolver) HasVerticalAccess(ctx context.Context, tenantID, verticalCode string) bool {
	key := fmt.Sprintf("perm:%s:vertical:%s", tenantID, verticalCode)
	if v, ok := r.cache.Get(key); ok {
		return v.(bool)
	}

	resp, reason := r.resolve(ctx, tenantID, "", verticalCode)
	granted := false
	if va := resp.FindVertical(verticalCode); va != nil {
		granted = va.Enabled
	}
	if reason != DegradedNone && verticalCode == DashboardVertical {
		granted = true
	}
	r.cache.Set(key, granted, cache.CheckTTL)
	return granted
}

// HasModuleAccess reports whether a tenant may use a module within a
// vertical. Module access is contravariant on vertical access: a module is
// never granted without its parent vertical.
func (r *Resolver) HasModuleAccess(ctx context.Context, tenantID, verticalCode, moduleCode string) bool {
	key := fmt.Sprintf("perm:%s:module:%s:%s", tenantID, verticalCode, moduleCode)
	if v, ok := r.cache.Get(key); ok {
		return v.(bool)
	}

	granted := false
	if r.HasVerticalAccess(ctx, tenantID, verticalCode) {
		resp, _ := r.resolve(ctx, tenantID, "", verticalCode)
		if va := resp.FindVertical(verticalCode); va != nil {
			if ma := va.FindModule(moduleCode); ma != nil {
				granted = ma.Enabled
			}
		}
	}
	r.cache.Set(key, granted, cache.CheckTTL)
	return granted
}

// HasFeatureAccess reports whether a feature flag is active for a tenant.
func (r *Resolver) HasFeatureAccess(ctx context.Context, tenantID, featureCode string) bool {
	key := fmt.Sprintf("perm:%s:feature:%s", tenantID, featureCode)
	if v, ok := r.cache.Get(key); ok {
		return v.(bool)
	}

	resp, _ := r.resolve(ctx, tenantID, "", "")
	granted := false
	for _, f := range resp.Features {
		if f == featureCode {
			granted = true
			break
		}
	}
	r.cache.Set(key, granted, cache.CheckTTL)
	return granted
}

// GetModuleRestrictions returns the restriction map of a granted module.
// Restrictions are only meaningful for granted modules, so nil is returned
// whenever module access is denied.
func (r *Resolver) GetModuleRestrictions(ctx context.Context, tenantID, verticalCode, moduleCode string) map[string]any {
	if !r.HasModuleAccess(ctx, tenantID, verticalCode, moduleCode) {
		return nil
	}
	resp, _ := r.resolve(ctx, tenantID, "", verticalCode)
	if va := resp.FindVertical(verticalCode); va != nil {
		if ma := va.FindModule(moduleCode); ma != nil {
			return ma.Restrictions
		}
	}
	return nil
}

// UpdateTenantPermissions writes a full permission snapshot. Unlike the
// read paths, write failures propagate so the caller can retry or alert.
func (r *Resolver) UpdateTenantPermissions(ctx context.Context, tenantID string, resp *authority.PermissionsResponse) error {
	resp = EnsureValidStructure(resp)
	if err := r.authority.UpdateTenantPermissions(ctx, tenantID, resp); err != nil {
		return fmt.Errorf("update permissions for tenant %s: %w", tenantID, err)
	}
	r.InvalidateTenant(tenantID)
	return nil
}

// SyncTenantPermissionsWithPlan rebuilds a tenant's vertical-access entries
// from the plan's module map. A tenant-specific features override already
// present on a module survives the resync; everything else is derived from
// the plan.
func (r *Resolver) SyncTenantPermissionsWithPlan(ctx context.Context, tenantID string, planID uint) error {
	plan, err := r.plans.GetByID(planID)
	if err != nil {
		return fmt.Errorf("sync tenant %s: load plan %d: %w", tenantID, planID, err)
	}

	current, err := r.authority.GetTenantPermissions(ctx, tenantID, "", "")
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return fmt.Errorf("sync tenant %s: read current permissions: %w", tenantID, err)
		}
		current = nil
	}
	current = EnsureValidStructure(current)

	rebuilt := &authority.PermissionsResponse{
		Verticals: make([]authority.VerticalAccess, 0, len(plan.Verticals)),
		Features:  append([]string{}, plan.Features...),
	}
	for _, verticalCode := range plan.Verticals {
		va := authority.VerticalAccess{
			VerticalCode: verticalCode,
			Enabled:      true,
			Modules:      make([]authority.ModuleAccess, 0, len(plan.Modules)),
		}
		existing := current.FindVertical(verticalCode)
		for _, ms := range plan.Modules {
			ma := authority.ModuleAccess{ModuleCode: ms.ModuleCode, Enabled: ms.Enabled}
			if existing != nil {
				if prev := existing.FindModule(ms.ModuleCode); prev != nil && len(prev.Features) > 0 {
					ma.Features = prev.Features
				}
			}
			va.Modules = append(va.Modules, ma)
		}
		rebuilt.Verticals = append(rebuilt.Verticals, va)
	}
	rebuilt = EnsureValidStructure(rebuilt)

	if err := r.authority.UpdateTenantPermissions(ctx, tenantID, rebuilt); err != nil {
		return fmt.Errorf("sync tenant %s with plan %d: %w", tenantID, planID, err)
	}
	r.InvalidateTenant(tenantID)
	log.Infof("[Permission] synced tenant %s with plan %d (%d verticals)", tenantID, planID, len(rebuilt.Verticals))
	return nil
}

// InvalidateTenant drops every cached entry belonging to a tenant.
func (r *Resolver) InvalidateTenant(tenantID string) {
	r.cache.InvalidatePrefix("perm:" + tenantID + ":")
}
