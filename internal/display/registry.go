package display

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages display server providers and handles display detection
type Registry struct {
	providers []Provider
	mu        sync.RWMutex
}

var (
	globalRegistry = &Registry{
		providers: make([]Provider, 0),
	}
)

// Register adds a display server provider to the global registry
// This is typically called from init() functions in backend packages
func Register(provider Provider) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers = append(globalRegistry.providers, provider)
	sort.SliceStable(globalRegistry.providers, func(i, j int) bool {
		return globalRegistry.providers[i].GetDisplayInfo().Priority > globalRegistry.providers[j].GetDisplayInfo().Priority
	})
}

// DetectDisplay returns the highest priority available provider
func DetectDisplay() (Provider, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, p := range globalRegistry.providers {
		if p.IsAvailable() {
			return p, nil
		}
	}

	return nil, fmt.Errorf("no compatible display server detected (tried %d providers)", len(globalRegistry.providers))
}

// GetAllProviders returns all registered providers
func GetAllProviders() []Provider {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	providers := make([]Provider, len(globalRegistry.providers))
	copy(providers, globalRegistry.providers)
	return providers
}

// GetProvider returns a specific provider by display server name, or nil if not found
func GetProvider(name string) Provider {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, p := range globalRegistry.providers {
		if p.GetDisplayInfo().Name == name {
			return p
		}
	}

	return nil
}

// Open returns a controller from the named backend, or from the detected one
// when backend is empty
func Open(backend, display string) (Controller, DisplayInfo, error) {
	var provider Provider
	if backend == "" {
		p, err := DetectDisplay()
		if err != nil {
			return nil, DisplayInfo{}, err
		}
		provider = p
	} else {
		provider = GetProvider(backend)
		if provider == nil {
			return nil, DisplayInfo{}, fmt.Errorf("unknown display backend %q", backend)
		}
	}

	ctrl, err := provider.GetController(display)
	if err != nil {
		return nil, DisplayInfo{}, fmt.Errorf("failed to open %s display: %w", provider.GetDisplayInfo().Name, err)
	}
	return ctrl, provider.GetDisplayInfo(), nil
}

// ClearProviders removes all registered providers (primarily for testing)
func ClearProviders() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers = make([]Provider, 0)
}
