package vertical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
)

type fakeTypeRepo struct {
	types  map[uint]*models.VerticalType
	nextID uint
}

func newFakeTypeRepo(types ...*models.VerticalType) *fakeTypeRepo {
	r := &fakeTypeRepo{types: make(map[uint]*models.VerticalType), nextID: 1}
	for _, t := range types {
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
		r.types[t.ID] = t
	}
	return r
}

func (r *fakeTypeRepo) GetByID(id uint) (*models.VerticalType, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.DefaultSettings = t.DefaultSettings.Clone()
	return &cp, nil
}

func (r *fakeTypeRepo) GetByCode(verticalID uint, code string) (*models.VerticalType, error) {
	for _, t := range r.types {
		if t.VerticalID == verticalID && t.Code == code {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTypeRepo) ListByVertical(verticalID uint) ([]models.VerticalType, error) {
	out := []models.VerticalType{}
	for _, t := range r.types {
		if t.VerticalID == verticalID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTypeRepo) Create(t *models.VerticalType) error {
	t.ID = r.nextID
	r.nextID++
	r.types[t.ID] = t
	return nil
}

func (r *fakeTypeRepo) Update(t *models.VerticalType) error {
	if _, ok := r.types[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.types[t.ID] = t
	return nil
}

func validDescriptor() models.SettingDescriptor {
	return models.SettingDescriptor{
		Label:      "Max listings",
		Type:       models.SettingTypeNumber,
		Value:      models.NumberValue(50),
		Importance: models.ImportanceHigh,
	}
}

func TestGetType_NotFound(t *testing.T) {
	s := NewService(newFakeTypeRepo())

	_, err := s.GetType(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateType_RejectsInvalidKey(t *testing.T) {
	s := NewService(newFakeTypeRepo())

	err := s.CreateType(context.Background(), &models.VerticalType{
		Code: "residential",
		Name: "Residential",
		DefaultSettings: models.SettingsMap{
			"Bad-Key": validDescriptor(),
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateType_RejectsInvalidDescriptor(t *testing.T) {
	s := NewService(newFakeTypeRepo())

	desc := validDescriptor()
	desc.Type = "tuple" // not an allowed kind

	err := s.CreateType(context.Background(), &models.VerticalType{
		Code:            "residential",
		Name:            "Residential",
		DefaultSettings: models.SettingsMap{"max_listings": desc},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateTypeSetting(t *testing.T) {
	repo := newFakeTypeRepo(&models.VerticalType{ID: 1, Code: "residential"})
	s := NewService(repo)

	updated, err := s.UpdateTypeSetting(context.Background(), 1, "max_listings", validDescriptor())
	require.NoError(t, err)
	require.Contains(t, updated.DefaultSettings, "max_listings")
	assert.Equal(t, "Max listings", updated.DefaultSettings["max_listings"].Label)

	stored, _ := repo.GetByID(1)
	assert.Contains(t, stored.DefaultSettings, "max_listings")
}

func TestUpdateTypeSetting_InvalidKey(t *testing.T) {
	s := NewService(newFakeTypeRepo(&models.VerticalType{ID: 1}))

	_, err := s.UpdateTypeSetting(context.Background(), 1, "Max Listings", validDescriptor())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateTypeSetting_MissingImportanceAllowed(t *testing.T) {
	s := NewService(newFakeTypeRepo(&models.VerticalType{ID: 1}))

	desc := validDescriptor()
	desc.Importance = ""

	_, err := s.UpdateTypeSetting(context.Background(), 1, "max_listings", desc)
	assert.NoError(t, err)
}

func TestCloneTypeSettings_ReplacesTargetWholesale(t *testing.T) {
	source := &models.VerticalType{
		ID:   1,
		Code: "residential",
		DefaultSettings: models.SettingsMap{
			"max_listings": validDescriptor(),
			"theme": {
				Label:   "Theme",
				Type:    models.SettingTypeSelect,
				Value:   models.StringValue("dark"),
				Options: []string{"light", "dark"},
			},
		},
	}
	target := &models.VerticalType{
		ID:   2,
		Code: "commercial",
		DefaultSettings: models.SettingsMap{
			"legacy_flag": {Label: "Legacy", Type: models.SettingTypeBoolean},
		},
	}
	repo := newFakeTypeRepo(source, target)
	s := NewService(repo)

	cloned, err := s.CloneTypeSettings(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, source.DefaultSettings, cloned.DefaultSettings)
	assert.NotContains(t, cloned.DefaultSettings, "legacy_flag", "target-only keys do not survive a clone")

	// The copy is deep: mutating the target afterwards leaves the source
	// template untouched.
	cloned.DefaultSettings["theme"].Options[0] = "mutated"
	fresh, _ := repo.GetByID(1)
	assert.Equal(t, "light", fresh.DefaultSettings["theme"].Options[0])
}

func TestCloneTypeSettings_SourceMissing(t *testing.T) {
	s := NewService(newFakeTypeRepo(&models.VerticalType{ID: 2}))

	_, err := s.CloneTypeSettings(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCloneTypeSettings_TargetMissing(t *testing.T) {
	s := NewService(newFakeTypeRepo(&models.VerticalType{ID: 1}))

	_, err := s.CloneTypeSettings(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
