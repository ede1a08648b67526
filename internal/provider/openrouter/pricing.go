package openrouter

import (
	"context"
	"fmt"

	"github.com/davidbz/streambench/internal/domain"
)

const (
	pricingSourceURL = "https://openrouter.ai/models"

	// Flat tier per 1M tokens for every routed model
	defaultInputCostPer1M  = 0.18
	defaultOutputCostPer1M = 0.18
)

// RegisterPricing registers the OpenRouter default tier with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	if err := registry.RegisterDefault(ctx, domain.ProviderOpenRouter, domain.PricingConfig{
		InputCostPer1M:  defaultInputCostPer1M,
		OutputCostPer1M: defaultOutputCostPer1M,
		SourceURL:       pricingSourceURL,
	}); err != nil {
		return fmt.Errorf("failed to register openrouter pricing: %w", err)
	}
	return nil
}
