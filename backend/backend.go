// Package backend provides a registry of named graphics environments for
// the script interpreter. Environment packages register a factory from an
// init function; harnesses select one by name or take the best available.
package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/shaderscript"
)

// Environment names registered by the built-in backend packages.
const (
	// NameWGPU is the GPU environment on gogpu/wgpu.
	NameWGPU = "wgpu"
	// NameSoftware is the pure-Go reference environment.
	NameSoftware = "software"
)

// Common registry errors.
var (
	// ErrNotRegistered is returned when a requested environment name is
	// unknown. Importing the backend package registers it:
	//
	//	import _ "github.com/gogpu/shaderscript/backend/software"
	ErrNotRegistered = errors.New("backend: environment not registered")

	// ErrNoneAvailable is returned when no environment could be created.
	ErrNoneAvailable = errors.New("backend: no environment available")
)

// Factory creates an environment with the given render target size.
type Factory func(width, height int) (shaderscript.Environment, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for default selection (first that initializes wins).
	priority = []string{NameWGPU, NameSoftware}
)

// Register registers an environment factory under a name. This is typically
// called from init() functions in environment packages. Registering the
// same name again replaces the factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a factory. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered environment names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether an environment name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// New creates the named environment with the given viewport size.
func New(name string, width, height int) (shaderscript.Environment, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrNotRegistered
	}
	return f(width, height)
}

// Default creates the best available environment: each registered factory
// is tried in priority order and the first that initializes wins. A GPU
// environment that fails to find a device falls through to the software
// environment.
func Default(width, height int) (shaderscript.Environment, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var firstErr error
	tried := make(map[string]bool, len(factories))
	try := func(name string, f Factory) (shaderscript.Environment, bool) {
		tried[name] = true
		env, err := f(width, height)
		if err == nil {
			return env, true
		}
		if firstErr == nil {
			firstErr = err
		}
		shaderscript.Logger().Warn("environment unavailable", "name", name, "err", err)
		return nil, false
	}

	for _, name := range priority {
		if f, ok := factories[name]; ok {
			if env, ok := try(name, f); ok {
				return env, nil
			}
		}
	}
	// Registered names outside the priority list are a last resort.
	for name, f := range factories {
		if tried[name] {
			continue
		}
		if env, ok := try(name, f); ok {
			return env, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoneAvailable
}
