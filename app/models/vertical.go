package models

import (
	"time"

	"gorm.io/gorm"
)

// Vertical is a top-level business domain offered by the platform
// (e.g. bienes_raices, medicina). Read-mostly at runtime; superadmin
// tooling is the only writer.
type Vertical struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Icon        string         `gorm:"type:varchar(100)" json:"icon"`
	Enabled     bool           `gorm:"default:true;index" json:"enabled"`
	Category    string         `gorm:"type:varchar(50);index" json:"category"`
	Order       int            `gorm:"column:sort_order;default:0" json:"order"`
	Features    StringList     `gorm:"type:json" json:"features"`
	ColorScheme string         `gorm:"type:varchar(50)" json:"color_scheme"`
	Types       []VerticalType `gorm:"foreignKey:VerticalID" json:"types,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// VerticalType is a named configuration variant within a vertical. Its
// DefaultSettings map is the authoritative template tenants inherit.
type VerticalType struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	VerticalID      uint           `gorm:"index;not null" json:"vertical_id"`
	Code            string         `gorm:"type:varchar(50);not null;index" json:"code"`
	Name            string         `gorm:"type:varchar(100);not null" json:"name"`
	Icon            string         `gorm:"type:varchar(100)" json:"icon"`
	DefaultSettings SettingsMap    `gorm:"type:json" json:"default_settings"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
