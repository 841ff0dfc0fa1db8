// Package modulemanager provides registration and lifecycle management
// for the application's domain modules.
package modulemanager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/logger"
)

// Module is implemented by every domain module.
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name
	Core() bool                // Core modules cannot be disabled
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is implemented by modules that expose HTTP routes.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// DependencyDeclarer is implemented by modules that must initialize after
// other modules.
type DependencyDeclarer interface {
	Dependencies() []string
}

// ModuleRegistry manages module registration and initialization.
type ModuleRegistry struct {
	modules     map[string]Module
	mu          sync.RWMutex
	initialized bool
}

// Registry is the global module registry.
var Registry = &ModuleRegistry{
	modules: make(map[string]Module),
}

// Register adds a module to the global registry.
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry.
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}
	r.modules[m.ID()] = m
	logger.Info("module registered", "name", m.Name(), "id", m.ID())
}

// LoadAll migrates and initializes all registered modules.
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes modules in dependency order.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	order, err := initializationOrder(r.modules)
	if err != nil {
		return err
	}

	for i, module := range order {
		logger.Info("loading module",
			"name", module.Name(),
			"position", fmt.Sprintf("%d/%d", i+1, len(order)))

		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}
	}

	r.initialized = true
	logger.Info("module system initialized", "modules", len(order))
	return nil
}

// initializationOrder topologically sorts modules by their declared
// dependencies, with a deterministic tie-break on module id.
func initializationOrder(modules map[string]Module) ([]Module, error) {
	ids := make([]string, 0, len(modules))
	for id := range modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var order []Module
	state := make(map[string]int) // 0 unvisited, 1 visiting, 2 done

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 1:
			return fmt.Errorf("dependency cycle involving module %s", id)
		case 2:
			return nil
		}
		module, ok := modules[id]
		if !ok {
			return fmt.Errorf("unknown module dependency: %s", id)
		}
		state[id] = 1
		if declarer, ok := module.(DependencyDeclarer); ok {
			deps := declarer.Dependencies()
			sort.Strings(deps)
			for _, dep := range deps {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[id] = 2
		order = append(order, module)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// RegisterRoutes registers routes for all modules implementing
// RouteRegistrar.
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes registers routes for all modules implementing
// RouteRegistrar.
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, module := range r.modules {
		if registrar, ok := module.(RouteRegistrar); ok {
			logger.Info("registering module routes", "module", module.Name())
			registrar.RegisterRoutes(router)
		}
	}
}

// GetModule returns a module by id.
func GetModule(id string) (Module, bool) {
	return Registry.GetModule(id)
}

// GetModule returns a module by id.
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, ok := r.modules[id]
	return module, ok
}

// ListModules returns all registered modules.
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns all registered modules.
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		out = append(out, module)
	}
	return out
}

// Reset clears the registry. Test helper.
func (r *ModuleRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]Module)
	r.initialized = false
}
