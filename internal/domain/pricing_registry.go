package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type pricingKey struct {
	provider ProviderName
	model    string
}

// InMemoryPricingRegistry stores pricing configs in memory.
type InMemoryPricingRegistry struct {
	mu       sync.RWMutex
	pricing  map[pricingKey]PricingConfig
	defaults map[ProviderName]PricingConfig
}

// NewInMemoryPricingRegistry creates a new in-memory pricing registry.
func NewInMemoryPricingRegistry() *InMemoryPricingRegistry {
	return &InMemoryPricingRegistry{
		mu:       sync.RWMutex{},
		pricing:  make(map[pricingKey]PricingConfig),
		defaults: make(map[ProviderName]PricingConfig),
	}
}

// GetPricing retrieves pricing for a model. Model names match case-insensitively.
func (r *InMemoryPricingRegistry) GetPricing(
	_ context.Context,
	provider ProviderName,
	model string,
) (PricingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := pricingKey{provider: provider, model: normalizeModel(model)}
	if config, exists := r.pricing[key]; exists {
		return config, nil
	}

	if config, exists := r.defaults[provider]; exists {
		return config, nil
	}

	return PricingConfig{}, fmt.Errorf("pricing not found for provider %s model: %s", provider, model)
}

// RegisterPricing adds pricing for a model.
func (r *InMemoryPricingRegistry) RegisterPricing(
	_ context.Context,
	provider ProviderName,
	model string,
	config PricingConfig,
) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}
	if strings.TrimSpace(model) == "" {
		return errors.New("model cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pricing[pricingKey{provider: provider, model: normalizeModel(model)}] = config
	return nil
}

// RegisterDefault sets the provider's fallback tier.
func (r *InMemoryPricingRegistry) RegisterDefault(
	_ context.Context,
	provider ProviderName,
	config PricingConfig,
) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaults[provider] = config
	return nil
}

// List returns all entries sorted by provider, defaults first.
func (r *InMemoryPricingRegistry) List(_ context.Context) []PricingEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]PricingEntry, 0, len(r.pricing)+len(r.defaults))
	for provider, config := range r.defaults {
		entries = append(entries, PricingEntry{Provider: provider, Config: config})
	}
	for key, config := range r.pricing {
		entries = append(entries, PricingEntry{Provider: key.provider, Model: key.model, Config: config})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Provider != entries[j].Provider {
			return entries[i].Provider < entries[j].Provider
		}
		return entries[i].Model < entries[j].Model
	})

	return entries
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
