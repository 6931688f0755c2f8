package repository

import (
	"github.com/LennySnaider/pymebot-core/app/models"
	"gorm.io/gorm"
)

// moduleRepository implements the ModuleRepository interface
type moduleRepository struct {
	db *gorm.DB
}

// NewModuleRepository creates a new module repository instance
func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

// GetByCode retrieves a module by its code
func (r *moduleRepository) GetByCode(code string) (*models.Module, error) {
	var m models.Module
	err := r.db.Where("code = ?", code).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetAll retrieves every module as a flat list
func (r *moduleRepository) GetAll() ([]models.Module, error) {
	var modules []models.Module
	err := r.db.Order("code ASC").Find(&modules).Error
	return modules, err
}

// GetByCategory retrieves the modules of one category as a flat list
func (r *moduleRepository) GetByCategory(category string) ([]models.Module, error) {
	var modules []models.Module
	err := r.db.Where("category = ?", category).Order("code ASC").Find(&modules).Error
	return modules, err
}
