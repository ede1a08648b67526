package deepseek

import (
	"context"
	"fmt"

	"github.com/davidbz/streambench/internal/domain"
)

const (
	pricingSourceURL = "https://api-docs.deepseek.com/quick_start/pricing"

	// deepseek-chat pricing per 1M tokens
	chatInputCostPer1M  = 0.14
	chatOutputCostPer1M = 0.28

	// deepseek-reasoner pricing per 1M tokens, also the default tier
	reasonerInputCostPer1M  = 0.55
	reasonerOutputCostPer1M = 2.19
)

// RegisterPricing registers DeepSeek model pricing with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	models := map[string]domain.PricingConfig{
		ModelChat: {
			InputCostPer1M:  chatInputCostPer1M,
			OutputCostPer1M: chatOutputCostPer1M,
			SourceURL:       pricingSourceURL,
		},
		ModelReasoner: {
			InputCostPer1M:  reasonerInputCostPer1M,
			OutputCostPer1M: reasonerOutputCostPer1M,
			SourceURL:       pricingSourceURL,
		},
	}

	for model, config := range models {
		if err := registry.RegisterPricing(ctx, domain.ProviderDeepSeek, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}

	if err := registry.RegisterDefault(ctx, domain.ProviderDeepSeek, domain.PricingConfig{
		InputCostPer1M:  reasonerInputCostPer1M,
		OutputCostPer1M: reasonerOutputCostPer1M,
		SourceURL:       pricingSourceURL,
	}); err != nil {
		return fmt.Errorf("failed to register deepseek default pricing: %w", err)
	}

	return nil
}
