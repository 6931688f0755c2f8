package vertical

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/app/repository"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
)

// Service manages vertical types and their default-settings templates.
type Service struct {
	types    repository.TypeRepository
	validate *validator.Validate
}

// NewService creates a vertical type service.
func NewService(types repository.TypeRepository) *Service {
	return &Service{
		types:    types,
		validate: validator.New(),
	}
}

// GetType resolves a vertical type by id.
func (s *Service) GetType(ctx context.Context, id uint) (*models.VerticalType, error) {
	_ = ctx
	t, err := s.types.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vertical type", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("get vertical type %d: %w", id, err)
	}
	return t, nil
}

// CreateType validates and persists a new vertical type.
func (s *Service) CreateType(ctx context.Context, t *models.VerticalType) error {
	if err := s.validateSettings(t.DefaultSettings); err != nil {
		return err
	}
	if err := s.types.Create(t); err != nil {
		return fmt.Errorf("create vertical type %q: %w", t.Code, err)
	}
	return nil
}

// UpdateTypeSetting validates and writes one setting descriptor on a type.
func (s *Service) UpdateTypeSetting(ctx context.Context, typeID uint, key string, desc models.SettingDescriptor) (*models.VerticalType, error) {
	if err := models.ValidateSettingKey(key); err != nil {
		return nil, apperrors.Validation(key, err.Error())
	}
	if err := s.validate.Struct(desc); err != nil {
		return nil, apperrors.Validation(key, err.Error())
	}

	t, err := s.GetType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if t.DefaultSettings == nil {
		t.DefaultSettings = models.SettingsMap{}
	}
	t.DefaultSettings[key] = desc
	if err := s.types.Update(t); err != nil {
		return nil, fmt.Errorf("update setting %q on type %d: %w", key, typeID, err)
	}
	return t, nil
}

// CloneTypeSettings copies the entire default-settings map of the source
// type onto the target type, replacing the target's map wholesale. A merge
// would leave orphaned keys with no clear provenance, so the overwrite is
// destructive on purpose; the caller owns the overwrite confirmation and
// must invalidate any cached copies of the target afterwards.
// Cross-vertical cloning is allowed.
func (s *Service) CloneTypeSettings(ctx context.Context, sourceTypeID, targetTypeID uint) (*models.VerticalType, error) {
	source, err := s.GetType(ctx, sourceTypeID)
	if err != nil {
		return nil, err
	}
	target, err := s.GetType(ctx, targetTypeID)
	if err != nil {
		return nil, err
	}

	target.DefaultSettings = source.DefaultSettings.Clone()
	if err := s.types.Update(target); err != nil {
		return nil, fmt.Errorf("clone settings from type %d to type %d: %w", sourceTypeID, targetTypeID, err)
	}
	log.Infof("[Vertical] cloned %d settings from type %d to type %d", len(target.DefaultSettings), sourceTypeID, targetTypeID)
	return target, nil
}

// validateSettings checks every key and descriptor of a settings map.
func (s *Service) validateSettings(settings models.SettingsMap) error {
	for key, desc := range settings {
		if err := models.ValidateSettingKey(key); err != nil {
			return apperrors.Validation(key, err.Error())
		}
		if err := s.validate.Struct(desc); err != nil {
			return apperrors.Validation(key, err.Error())
		}
	}
	return nil
}
