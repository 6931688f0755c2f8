package capability

import (
	"sync"

	"github.com/LennySnaider/pymebot-core/app/models"
)

// Definition is the loaded, runtime-ready shape of a vertical: catalog
// metadata plus the component set the consumer layer mounts for it.
type Definition struct {
	Vertical   models.Vertical
	Category   string
	Types      []models.VerticalType
	Modules    []models.Module
	Components map[string]any
}

// Category groups verticals in the consumer layer.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

// Registry is the in-process store of loaded vertical definitions. It has
// no persistence and exists once per running process; tests construct a
// fresh instance per case.
type Registry struct {
	mu         sync.RWMutex
	verticals  map[string]Definition
	categories map[string]Category
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		verticals:  make(map[string]Definition),
		categories: make(map[string]Category),
	}
}

// Register inserts or fully replaces the definition for its vertical code.
// There is no partial merge: registering a definition with an empty
// component set is how a reset is modeled.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verticals[def.Vertical.Code] = def
}

// Unregister removes a vertical definition. Unknown codes are a no-op.
func (r *Registry) Unregister(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.verticals, code)
}

// GetVertical returns the definition registered for code.
func (r *Registry) GetVertical(code string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.verticals[code]
	return def, ok
}

// FindModule looks up a module by code inside a registered vertical's
// module forest, searching nested submodules.
func (r *Registry) FindModule(verticalCode, moduleCode string) (models.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.verticals[verticalCode]
	if !ok {
		return models.Module{}, false
	}
	m := models.FindModuleByCode(def.Modules, moduleCode)
	if m == nil {
		return models.Module{}, false
	}
	return *m, true
}

// AllVerticals returns every registered definition.
func (r *Registry) AllVerticals() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.verticals))
	for _, def := range r.verticals {
		out = append(out, def)
	}
	return out
}

// RegisterCategory inserts or replaces a category.
func (r *Registry) RegisterCategory(cat Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[cat.ID] = cat
}

// GetCategory returns the category registered under id.
func (r *Registry) GetCategory(id string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cat, ok := r.categories[id]
	return cat, ok
}

// AllCategories returns every registered category.
func (r *Registry) AllCategories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.categories))
	for _, cat := range r.categories {
		out = append(out, cat)
	}
	return out
}
