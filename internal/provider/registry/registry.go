package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/davidbz/streambench/internal/domain"
)

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	providers       map[domain.ProviderName]domain.ProviderCapability
	modelToProvider map[string]domain.ProviderName
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		providers:       make(map[domain.ProviderName]domain.ProviderCapability),
		modelToProvider: make(map[string]domain.ProviderName),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(_ context.Context, provider domain.ProviderCapability) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider

	// Build reverse index from provider's known models
	for _, model := range provider.KnownModels() {
		r.modelToProvider[strings.ToLower(model)] = name
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, name domain.ProviderName) (domain.ProviderCapability, error) {
	if name == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// List returns all available providers, sorted by name.
func (r *Registry) List(_ context.Context) ([]domain.ProviderName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]domain.ProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names, nil
}

// GetByModel retrieves the provider that lists the given model.
func (r *Registry) GetByModel(_ context.Context, model string) (domain.ProviderCapability, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, exists := r.modelToProvider[strings.ToLower(model)]
	if !exists {
		return nil, fmt.Errorf("no provider found for model: %s", model)
	}

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	return provider, nil
}
