package plansync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/app/repository"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/permission"
)

const (
	// PlanChangeBatchSize bounds concurrent outbound calls while
	// propagating a single plan's change.
	PlanChangeBatchSize = 10
	// FullResyncBatchSize is smaller because a full resync touches every
	// tenant and must be gentler on the authority.
	FullResyncBatchSize = 5
	// resyncStagger spaces out tenant starts within a full-resync batch.
	resyncStagger = 100 * time.Millisecond
)

// ModuleChange is one explicit per-module enablement change attached to a
// plan-change event.
type ModuleChange struct {
	ModuleCode string `json:"module_code"`
	Enabled    bool   `json:"enabled"`
}

// Result tallies a batch propagation. Success+Failed+Skipped always equals
// the number of discovered tenants.
type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Service propagates plan-level module changes to every tenant on the
// plan, batched and fault tolerant: one bad tenant record never stops the
// propagation to the others.
type Service struct {
	tenants  repository.TenantRepository
	resolver *permission.Resolver
}

// NewService creates a plan synchronizer.
func NewService(tenants repository.TenantRepository, resolver *permission.Resolver) *Service {
	return &Service{tenants: tenants, resolver: resolver}
}

// SyncTenantsWithPlanChanges re-derives permission state for every active
// tenant on the changed plan. Batches run strictly sequentially; tenants
// within a batch run concurrently.
func (s *Service) SyncTenantsWithPlanChanges(ctx context.Context, planID uint, changes []ModuleChange) (Result, error) {
	tenants, err := s.tenants.ListByPlan(planID, true)
	if err != nil {
		return Result{}, fmt.Errorf("sync plan %d: list tenants: %w", planID, err)
	}
	if len(tenants) == 0 {
		return Result{}, nil
	}

	log.Infof("[PlanSync] propagating plan %d change to %d tenants (%d module changes)", planID, len(tenants), len(changes))

	var total Result
	for start := 0; start < len(tenants); start += PlanChangeBatchSize {
		end := start + PlanChangeBatchSize
		if end > len(tenants) {
			end = len(tenants)
		}
		r := s.runBatch(tenants[start:end], func(t models.Tenant) (bool, error) {
			// Already on the target plan with no explicit change list:
			// nothing to re-derive.
			if t.PlanID == planID && len(changes) == 0 {
				return true, nil
			}
			return false, s.resolver.SyncTenantPermissionsWithPlan(ctx, t.ID, planID)
		}, 0)
		total.Success += r.Success
		total.Failed += r.Failed
		total.Skipped += r.Skipped
	}

	if total.Failed > 0 {
		log.Warnf("[PlanSync] plan %d propagation finished with failures: %+v", planID, total)
		return total, fmt.Errorf("plan %d: %d of %d tenants failed: %w", planID, total.Failed, len(tenants), apperrors.ErrPartialSync)
	}
	log.Infof("[PlanSync] plan %d propagation finished: %+v", planID, total)
	return total, nil
}

// SyncTenantPlanChange moves a single tenant to a new plan. Plan
// persistence and permission resync are two sequential steps, not one
// transaction: when the resync step fails after the plan write, the tenant
// keeps the new plan id with stale permissions until a retry or a full
// resync picks it up.
func (s *Service) SyncTenantPlanChange(ctx context.Context, tenantID string, newPlanID uint) error {
	t, err := s.tenants.GetByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("tenant", tenantID)
		}
		return fmt.Errorf("plan change for tenant %s: %w", tenantID, err)
	}
	if t.PlanID == newPlanID {
		return nil
	}

	if err := s.tenants.UpdatePlan(tenantID, newPlanID); err != nil {
		return fmt.Errorf("plan change for tenant %s: persist plan %d: %w", tenantID, newPlanID, err)
	}
	if err := s.resolver.SyncTenantPermissionsWithPlan(ctx, tenantID, newPlanID); err != nil {
		return fmt.Errorf("plan change for tenant %s: plan %d persisted but resync failed: %w", tenantID, newPlanID, err)
	}
	return nil
}

// ResyncAllTenants rebuilds permission state for every active tenant from
// its own current plan. Batches are smaller and tenant starts are
// staggered; cancellation is honored between batches.
func (s *Service) ResyncAllTenants(ctx context.Context) (Result, error) {
	tenants, err := s.tenants.ListActive()
	if err != nil {
		return Result{}, fmt.Errorf("full resync: list tenants: %w", err)
	}
	if len(tenants) == 0 {
		return Result{}, nil
	}

	log.Infof("[PlanSync] full resync of %d tenants", len(tenants))

	var total Result
	for start := 0; start < len(tenants); start += FullResyncBatchSize {
		if err := ctx.Err(); err != nil {
			log.Warnf("[PlanSync] full resync canceled after %d tenants: %+v", total.Success+total.Failed+total.Skipped, total)
			return total, err
		}
		end := start + FullResyncBatchSize
		if end > len(tenants) {
			end = len(tenants)
		}
		r := s.runBatch(tenants[start:end], func(t models.Tenant) (bool, error) {
			return false, s.resolver.SyncTenantPermissionsWithPlan(ctx, t.ID, t.PlanID)
		}, resyncStagger)
		total.Success += r.Success
		total.Failed += r.Failed
		total.Skipped += r.Skipped
	}

	if total.Failed > 0 {
		return total, fmt.Errorf("full resync: %d of %d tenants failed: %w", total.Failed, len(tenants), apperrors.ErrPartialSync)
	}
	log.Infof("[PlanSync] full resync finished: %+v", total)
	return total, nil
}

// runBatch fans one batch out to goroutines, settles them all, and folds
// the per-tenant outcomes into a tally. A panic or error in one tenant is
// counted as failed without aborting the rest of the batch.
func (s *Service) runBatch(batch []models.Tenant, fn func(models.Tenant) (skipped bool, err error), stagger time.Duration) Result {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
		r  Result
	)
	for i := range batch {
		if stagger > 0 && i > 0 {
			time.Sleep(stagger)
		}
		wg.Add(1)
		go func(t models.Tenant) {
			defer wg.Done()
			skipped, err := s.syncOne(t, fn)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case skipped:
				r.Skipped++
			case err != nil:
				log.Errorf("[PlanSync] tenant %s failed: %v", t.ID, err)
				r.Failed++
			default:
				r.Success++
			}
		}(batch[i])
	}
	wg.Wait()
	return r
}

// syncOne wraps one tenant's sync so a panic surfaces as an error instead
// of escaping the batch join.
func (s *Service) syncOne(t models.Tenant, fn func(models.Tenant) (bool, error)) (skipped bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			skipped = false
			err = fmt.Errorf("panic syncing tenant %s: %v", t.ID, rec)
		}
	}()
	return fn(t)
}
