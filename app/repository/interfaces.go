package repository

import (
	"github.com/LennySnaider/pymebot-core/app/models"
	"gorm.io/gorm"
)

// VerticalRepository defines catalog reads for verticals.
type VerticalRepository interface {
	GetByCode(code string) (*models.Vertical, error)
	GetAll() ([]models.Vertical, error)
	GetEnabled() ([]models.Vertical, error)
	Create(v *models.Vertical) error
	Update(v *models.Vertical) error
}

// TypeRepository defines catalog operations for vertical types.
type TypeRepository interface {
	GetByID(id uint) (*models.VerticalType, error)
	GetByCode(verticalID uint, code string) (*models.VerticalType, error)
	ListByVertical(verticalID uint) ([]models.VerticalType, error)
	Create(t *models.VerticalType) error
	Update(t *models.VerticalType) error
}

// ModuleRepository defines catalog reads for modules. Modules are stored
// flat; callers assemble the tree with models.BuildModuleForest.
type ModuleRepository interface {
	GetByCode(code string) (*models.Module, error)
	GetAll() ([]models.Module, error)
	GetByCategory(category string) ([]models.Module, error)
}

// PlanRepository defines catalog operations for subscription plans.
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetAll() ([]models.Plan, error)
	Update(p *models.Plan) error
}

// TenantRepository is the tenant directory.
type TenantRepository interface {
	GetByID(id string) (*models.Tenant, error)
	ListByPlan(planID uint, activeOnly bool) ([]models.Tenant, error)
	ListActive() ([]models.Tenant, error)
	UpdatePlan(tenantID string, planID uint) error
}

// Repositories bundles all repository instances.
type Repositories struct {
	Vertical VerticalRepository
	Type     TypeRepository
	Module   ModuleRepository
	Plan     PlanRepository
	Tenant   TenantRepository
}

// NewRepositories creates all repositories from a single DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Vertical: NewVerticalRepository(db),
		Type:     NewTypeRepository(db),
		Module:   NewModuleRepository(db),
		Plan:     NewPlanRepository(db),
		Tenant:   NewTenantRepository(db),
	}
}
