package backend

import (
	"sync"

	"github.com/gogpu/hwvg/gpucore"
)

// registry holds registered backend factories.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get constructs a context from the named backend.
// Returns ErrBackendNotAvailable if no such backend is registered.
func Get(name string) (gpucore.Context, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, ErrBackendNotAvailable
	}
	return factory()
}

// Default constructs a context from the best available backend.
// Priority order: wgpu > software. A factory error moves selection to
// the next candidate rather than failing outright.
func Default() (gpucore.Context, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		factory, ok := backends[name]
		if !ok {
			continue
		}
		if ctx, err := factory(); err == nil {
			return ctx, nil
		}
	}

	// Fallback: first registered factory outside the priority list.
	for name, factory := range backends {
		if inPriority(name) {
			continue
		}
		if ctx, err := factory(); err == nil {
			return ctx, nil
		}
	}

	return nil, ErrBackendNotAvailable
}

// MustDefault constructs the default context or panics.
func MustDefault() gpucore.Context {
	ctx, err := Default()
	if err != nil {
		panic("backend: no backend available")
	}
	return ctx
}

func inPriority(name string) bool {
	for _, p := range backendPriority {
		if p == name {
			return true
		}
	}
	return false
}
