package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant roles understood by the permission authority.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleAgent       = "agent"
)

// Tenant is a customer organization, the unit of plan assignment.
type Tenant struct {
	ID        string         `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(191);not null" json:"name"`
	PlanID    uint           `gorm:"index;not null" json:"plan_id"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
