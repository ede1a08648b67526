package domain

import (
	"context"
	"errors"
)

const tokensPerMillion = 1_000_000.0

// StandardCostCalculator implements standard token-based cost calculation.
type StandardCostCalculator struct {
	pricingRegistry PricingRegistry
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(registry PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricingRegistry: registry,
	}
}

// Calculate computes the estimated cost from normalized usage and the
// provider's pricing table.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	provider ProviderName,
	model string,
	usage TokenUsage,
) (Cost, error) {
	if provider == "" {
		return Cost{}, errors.New("provider cannot be empty")
	}

	pricing, err := c.pricingRegistry.GetPricing(ctx, provider, model)
	if err != nil {
		// Unknown pricing yields a zero estimate rather than failing the run.
		//nolint:nilerr // Intentionally returning nil to allow runs with unknown pricing
		return Cost{}, nil
	}

	inputCost := float64(usage.Prompt()) / tokensPerMillion * pricing.InputCostPer1M
	outputCost := float64(usage.Completion()) / tokensPerMillion * pricing.OutputCostPer1M

	return Cost{
		EstimatedCostUSD: inputCost + outputCost,
		PricingSourceURL: pricing.SourceURL,
	}, nil
}
