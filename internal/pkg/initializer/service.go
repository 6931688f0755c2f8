package initializer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/app/repository"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/cache"
	"github.com/LennySnaider/pymebot-core/internal/pkg/capability"
	"github.com/LennySnaider/pymebot-core/internal/pkg/permission"
)

// Options controls a single vertical initialization.
type Options struct {
	// TenantID, when set, gates registration behind the tenant's vertical
	// access, not just UI visibility.
	TenantID string
	// ForceRefresh reloads catalog data even for an already initialized
	// vertical.
	ForceRefresh bool
	// TypeCode optionally loads one named type variant along with the
	// vertical.
	TypeCode string
}

// Loader is a custom per-vertical loader. When registered for a code it
// replaces the generic catalog path.
type Loader func(ctx context.Context, code string) (capability.Definition, error)

// Service discovers verticals, types and modules from the catalog and
// registers them into the capability registry. Initialization is
// idempotent per vertical code.
type Service struct {
	registry  *capability.Registry
	resolver  *permission.Resolver
	verticals repository.VerticalRepository
	types     repository.TypeRepository
	modules   repository.ModuleRepository
	cache     *cache.Cache

	mu          sync.Mutex
	initialized map[string]struct{}
	loaders     map[string]Loader
}

// NewService creates a vertical initializer.
func NewService(
	registry *capability.Registry,
	resolver *permission.Resolver,
	verticals repository.VerticalRepository,
	types repository.TypeRepository,
	modules repository.ModuleRepository,
	c *cache.Cache,
) *Service {
	return &Service{
		registry:    registry,
		resolver:    resolver,
		verticals:   verticals,
		types:       types,
		modules:     modules,
		cache:       c,
		initialized: make(map[string]struct{}),
		loaders:     make(map[string]Loader),
	}
}

// RegisterLoader installs a custom loader for a vertical code.
func (s *Service) RegisterLoader(code string, loader Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaders[code] = loader
}

// IsInitialized reports whether a vertical code has been initialized.
func (s *Service) IsInitialized(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.initialized[code]
	return ok
}

// InitializeVertical loads and registers one vertical. It returns true
// when the vertical is (or already was) registered, and false without an
// error when a tenant-scoped access check denies it.
func (s *Service) InitializeVertical(ctx context.Context, code string, opts Options) (bool, error) {
	if !opts.ForceRefresh && s.IsInitialized(code) {
		return true, nil
	}

	if opts.TenantID != "" && !s.resolver.HasVerticalAccess(ctx, opts.TenantID, code) {
		log.Warnf("[Initializer] tenant %s denied on vertical %s, not registering", opts.TenantID, code)
		return false, nil
	}

	if opts.ForceRefresh {
		s.cache.InvalidatePrefix("catalog:" + code + ":")
	}

	def, err := s.load(ctx, code, opts)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Register(def)
	s.initialized[code] = struct{}{}
	log.Infof("[Initializer] registered vertical %s (%d modules, %d types)", code, len(def.Modules), len(def.Types))
	return true, nil
}

// InitializeVerticals fans out InitializeVertical concurrently and returns
// a per-code result map. One code's failure or denial does not affect the
// others.
func (s *Service) InitializeVerticals(ctx context.Context, codes []string, opts Options) map[string]bool {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]bool, len(codes))
	)
	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			ok, err := s.InitializeVertical(ctx, code, opts)
			if err != nil {
				log.Errorf("[Initializer] vertical %s failed: %v", code, err)
				ok = false
			}
			mu.Lock()
			results[code] = ok
			mu.Unlock()
		}(code)
	}
	wg.Wait()
	return results
}

// ResetVertical clears a vertical's initialized membership and re-registers
// it with an empty capability set. This is a soft reset: the registry entry
// survives, emptied, because removal is not universally supported by
// consumers holding references.
func (s *Service) ResetVertical(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.initialized, code)
	if def, ok := s.registry.GetVertical(code); ok {
		s.registry.Register(capability.Definition{
			Vertical:   def.Vertical,
			Category:   def.Category,
			Components: map[string]any{},
		})
	}
	s.cache.InvalidatePrefix("catalog:" + code + ":")
}

// ResetAllVerticals soft-resets every registered vertical.
func (s *Service) ResetAllVerticals() {
	for _, def := range s.registry.AllVerticals() {
		s.ResetVertical(def.Vertical.Code)
	}
}

// load builds a definition via the custom loader when one is registered,
// otherwise through the generic catalog path.
func (s *Service) load(ctx context.Context, code string, opts Options) (capability.Definition, error) {
	s.mu.Lock()
	loader, hasLoader := s.loaders[code]
	s.mu.Unlock()
	if hasLoader {
		return loader(ctx, code)
	}
	return s.loadGeneric(ctx, code, opts)
}

// loadGeneric assembles a definition from catalog data: the vertical, its
// module forest and optionally one named type. Catalog reads go through
// the expiring cache.
func (s *Service) loadGeneric(ctx context.Context, code string, opts Options) (capability.Definition, error) {
	_ = ctx
	v, err := s.loadVertical(code)
	if err != nil {
		return capability.Definition{}, err
	}

	forest, err := s.loadModules(code)
	if err != nil {
		return capability.Definition{}, err
	}

	def := capability.Definition{
		Vertical:   *v,
		Category:   v.Category,
		Modules:    forest,
		Components: map[string]any{},
	}

	if opts.TypeCode != "" {
		t, err := s.types.GetByCode(v.ID, opts.TypeCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return capability.Definition{}, apperrors.NotFound("vertical type", opts.TypeCode)
			}
			return capability.Definition{}, fmt.Errorf("load type %q of vertical %s: %w", opts.TypeCode, code, err)
		}
		def.Types = []models.VerticalType{*t}
	}

	return def, nil
}

func (s *Service) loadVertical(code string) (*models.Vertical, error) {
	key := "catalog:" + code + ":vertical"
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.Vertical), nil
	}
	v, err := s.verticals.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vertical", code)
		}
		return nil, fmt.Errorf("load vertical %s: %w", code, err)
	}
	s.cache.Set(key, v, cache.CatalogTTL)
	return v, nil
}

func (s *Service) loadModules(code string) ([]models.Module, error) {
	key := "catalog:" + code + ":modules"
	if v, ok := s.cache.Get(key); ok {
		return v.([]models.Module), nil
	}
	flat, err := s.modules.GetByCategory(code)
	if err != nil {
		return nil, fmt.Errorf("load modules of vertical %s: %w", code, err)
	}
	forest := models.BuildModuleForest(flat)
	s.cache.Set(key, forest, cache.CatalogTTL)
	return forest, nil
}
