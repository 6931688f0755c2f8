package repository

import (
	"github.com/LennySnaider/pymebot-core/app/models"
	"gorm.io/gorm"
)

// tenantRepository implements the TenantRepository interface
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(id string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.Where("id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByPlan retrieves all tenants currently assigned to a plan
func (r *tenantRepository) ListByPlan(planID uint, activeOnly bool) ([]models.Tenant, error) {
	var tenants []models.Tenant
	q := r.db.Where("plan_id = ?", planID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// ListActive retrieves every active tenant
func (r *tenantRepository) ListActive() ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// UpdatePlan assigns a new plan to a tenant
func (r *tenantRepository) UpdatePlan(tenantID string, planID uint) error {
	return r.db.Model(&models.Tenant{}).Where("id = ?", tenantID).
		Update("plan_id", planID).Error
}
