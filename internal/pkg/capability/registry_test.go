package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LennySnaider/pymebot-core/app/models"
)

func defFor(code string) Definition {
	return Definition{
		Vertical: models.Vertical{Code: code, Name: code},
		Modules:  []models.Module{{Code: code + "_core"}},
		Components: map[string]any{
			"list_view": struct{}{},
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(defFor("bienes_raices"))

	def, ok := r.GetVertical("bienes_raices")
	require.True(t, ok)
	assert.Equal(t, "bienes_raices", def.Vertical.Code)
	assert.Len(t, def.Modules, 1)

	_, ok = r.GetVertical("medicina")
	assert.False(t, ok)
}

func TestRegistry_RegisterReplacesWholesale(t *testing.T) {
	r := NewRegistry()
	r.Register(defFor("crm"))

	// Re-registering with an empty component set models a reset; nothing
	// from the previous registration may survive.
	r.Register(Definition{
		Vertical:   models.Vertical{Code: "crm"},
		Components: map[string]any{},
	})

	def, ok := r.GetVertical("crm")
	require.True(t, ok)
	assert.Empty(t, def.Components)
	assert.Empty(t, def.Modules)
	assert.Len(t, r.AllVerticals(), 1)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(defFor("crm"))

	r.Unregister("crm")
	_, ok := r.GetVertical("crm")
	assert.False(t, ok)

	// Unknown codes are a no-op.
	r.Unregister("missing")
}

func TestRegistry_FindModule(t *testing.T) {
	r := NewRegistry()
	def := defFor("bienes_raices")
	def.Modules = []models.Module{
		{ID: 1, Code: "properties", Children: []models.Module{{ID: 2, Code: "listings"}}},
		{ID: 3, Code: "appointments"},
	}
	r.Register(def)

	m, ok := r.FindModule("bienes_raices", "listings")
	require.True(t, ok)
	assert.Equal(t, uint(2), m.ID)

	_, ok = r.FindModule("bienes_raices", "ghost")
	assert.False(t, ok)

	_, ok = r.FindModule("medicina", "listings")
	assert.False(t, ok)
}

func TestRegistry_AllVerticals(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.AllVerticals())

	r.Register(defFor("a"))
	r.Register(defFor("b"))
	assert.Len(t, r.AllVerticals(), 2)
}

func TestRegistry_Categories(t *testing.T) {
	r := NewRegistry()
	r.RegisterCategory(Category{ID: "business", Name: "Business", Order: 1})
	r.RegisterCategory(Category{ID: "health", Name: "Health", Order: 2})

	cat, ok := r.GetCategory("business")
	require.True(t, ok)
	assert.Equal(t, "Business", cat.Name)

	r.RegisterCategory(Category{ID: "business", Name: "Biz", Order: 5})
	cat, _ = r.GetCategory("business")
	assert.Equal(t, "Biz", cat.Name)
	assert.Equal(t, 5, cat.Order)

	assert.Len(t, r.AllCategories(), 2)
	_, ok = r.GetCategory("missing")
	assert.False(t, ok)
}
