package repository

import (
	"github.com/LennySnaider/pymebot-core/app/models"
	"gorm.io/gorm"
)

// typeRepository implements the TypeRepository interface
type typeRepository struct {
	db *gorm.DB
}

// NewTypeRepository creates a new vertical type repository instance
func NewTypeRepository(db *gorm.DB) TypeRepository {
	return &typeRepository{db: db}
}

// GetByID retrieves a vertical type by its ID
func (r *typeRepository) GetByID(id uint) (*models.VerticalType, error) {
	var t models.VerticalType
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByCode retrieves a type by code within a vertical
func (r *typeRepository) GetByCode(verticalID uint, code string) (*models.VerticalType, error) {
	var t models.VerticalType
	err := r.db.Where("vertical_id = ? AND code = ?", verticalID, code).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByVertical retrieves all active types of a vertical
func (r *typeRepository) ListByVertical(verticalID uint) ([]models.VerticalType, error) {
	var types []models.VerticalType
	err := r.db.Where("vertical_id = ? AND is_active = ?", verticalID, true).
		Order("code ASC").Find(&types).Error
	return types, err
}

// Create inserts a new vertical type
func (r *typeRepository) Create(t *models.VerticalType) error {
	return r.db.Create(t).Error
}

// Update saves an existing vertical type
func (r *typeRepository) Update(t *models.VerticalType) error {
	return r.db.Save(t).Error
}
