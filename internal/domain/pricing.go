package domain

import "context"

// PricingConfig contains model pricing information.
type PricingConfig struct {
	InputCostPer1M  float64 // USD per 1M input tokens
	OutputCostPer1M float64 // USD per 1M output tokens
	SourceURL       string
}

// PricingEntry is one row of the pricing table. An empty Model marks the
// provider's default tier.
type PricingEntry struct {
	Provider ProviderName
	Model    string
	Config   PricingConfig
}

// Cost is the outcome of a cost calculation.
type Cost struct {
	EstimatedCostUSD float64
	PricingSourceURL string
}

// CostCalculator calculates cost based on token usage.
type CostCalculator interface {
	// Calculate returns the estimated cost for a given provider, model and usage.
	Calculate(ctx context.Context, provider ProviderName, model string, usage TokenUsage) (Cost, error)
}

// PricingRegistry maintains pricing information for models.
type PricingRegistry interface {
	// GetPricing returns pricing config for a model, falling back to the
	// provider's default tier.
	GetPricing(ctx context.Context, provider ProviderName, model string) (PricingConfig, error)

	// RegisterPricing adds pricing for a model.
	RegisterPricing(ctx context.Context, provider ProviderName, model string, config PricingConfig) error

	// RegisterDefault sets the tier used for models without their own entry.
	RegisterDefault(ctx context.Context, provider ProviderName, config PricingConfig) error

	// List returns every registered entry.
	List(ctx context.Context) []PricingEntry
}
