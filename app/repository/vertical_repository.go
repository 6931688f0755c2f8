package repository

import (
	"github.com/LennySnaider/pymebot-core/app/models"
	"gorm.io/gorm"
)

// verticalRepository implements the VerticalRepository interface
type verticalRepository struct {
	db *gorm.DB
}

// NewVerticalRepository creates a new vertical repository instance
func NewVerticalRepository(db *gorm.DB) VerticalRepository {
	return &verticalRepository{db: db}
}

// GetByCode retrieves a vertical by its stable code
func (r *verticalRepository) GetByCode(code string) (*models.Vertical, error) {
	var v models.Vertical
	err := r.db.Preload("Types").Where("code = ?", code).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetAll retrieves all verticals ordered for display
func (r *verticalRepository) GetAll() ([]models.Vertical, error) {
	var verticals []models.Vertical
	err := r.db.Order("sort_order ASC, code ASC").Find(&verticals).Error
	return verticals, err
}

// GetEnabled retrieves all enabled verticals ordered for display
func (r *verticalRepository) GetEnabled() ([]models.Vertical, error) {
	var verticals []models.Vertical
	err := r.db.Where("enabled = ?", true).
		Order("sort_order ASC, code ASC").Find(&verticals).Error
	return verticals, err
}

// Create inserts a new vertical
func (r *verticalRepository) Create(v *models.Vertical) error {
	return r.db.Create(v).Error
}

// Update saves an existing vertical
func (r *verticalRepository) Update(v *models.Vertical) error {
	return r.db.Save(v).Error
}
