package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/domain"
)

const testPricingURL = "https://example.com/pricing"

func TestStandardCostCalculator_Calculate(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	err := registry.RegisterPricing(ctx, domain.ProviderDeepSeek, "deepseek-chat", domain.PricingConfig{
		InputCostPer1M:  0.14,
		OutputCostPer1M: 0.28,
		SourceURL:       testPricingURL,
	})
	require.NoError(t, err)
	err = registry.RegisterDefault(ctx, domain.ProviderDeepSeek, domain.PricingConfig{
		InputCostPer1M:  0.55,
		OutputCostPer1M: 2.19,
		SourceURL:       testPricingURL,
	})
	require.NoError(t, err)

	calculator := domain.NewStandardCostCalculator(registry)

	tests := []struct {
		name         string
		provider     domain.ProviderName
		model        string
		usage        domain.TokenUsage
		expectedCost float64
		expectedURL  string
		expectError  bool
	}{
		{
			name:     "known model",
			provider: domain.ProviderDeepSeek,
			model:    "deepseek-chat",
			usage: domain.TokenUsage{
				PromptTokens:     domain.Tokens(1_000_000),
				CompletionTokens: domain.Tokens(500_000),
			},
			expectedCost: 0.28, // 0.14 + 0.5 * 0.28
			expectedURL:  testPricingURL,
		},
		{
			name:     "model matched case-insensitively",
			provider: domain.ProviderDeepSeek,
			model:    "DeepSeek-Chat",
			usage: domain.TokenUsage{
				PromptTokens:     domain.Tokens(1_000_000),
				CompletionTokens: domain.Tokens(0),
			},
			expectedCost: 0.14,
			expectedURL:  testPricingURL,
		},
		{
			name:     "unknown model falls back to provider default",
			provider: domain.ProviderDeepSeek,
			model:    "deepseek-coder",
			usage: domain.TokenUsage{
				PromptTokens:     domain.Tokens(1000),
				CompletionTokens: domain.Tokens(1000),
			},
			expectedCost: 0.00274, // (0.55 + 2.19) / 1000
			expectedURL:  testPricingURL,
		},
		{
			name:     "unknown provider returns zero cost",
			provider: domain.ProviderOpenRouter,
			model:    "any",
			usage: domain.TokenUsage{
				PromptTokens:     domain.Tokens(1000),
				CompletionTokens: domain.Tokens(500),
			},
			expectedCost: 0,
		},
		{
			name:        "empty provider returns error",
			provider:    "",
			model:       "deepseek-chat",
			expectError: true,
		},
		{
			name:         "unknown counters count as zero",
			provider:     domain.ProviderDeepSeek,
			model:        "deepseek-chat",
			usage:        domain.TokenUsage{},
			expectedCost: 0,
			expectedURL:  testPricingURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, testErr := calculator.Calculate(ctx, tt.provider, tt.model, tt.usage)

			if tt.expectError {
				require.Error(t, testErr)
				return
			}

			require.NoError(t, testErr)
			require.InDelta(t, tt.expectedCost, cost.EstimatedCostUSD, 1e-9)
			require.Equal(t, tt.expectedURL, cost.PricingSourceURL)
		})
	}
}

func TestInMemoryPricingRegistry_RegisterAndGet(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	t.Run("register and retrieve pricing", func(t *testing.T) {
		config := domain.PricingConfig{
			InputCostPer1M:  0.55,
			OutputCostPer1M: 2.19,
		}

		err := registry.RegisterPricing(ctx, domain.ProviderDeepSeek, "deepseek-reasoner", config)
		require.NoError(t, err)

		retrieved, err := registry.GetPricing(ctx, domain.ProviderDeepSeek, "deepseek-reasoner")
		require.NoError(t, err)
		require.InDelta(t, config.InputCostPer1M, retrieved.InputCostPer1M, 0.0001)
		require.InDelta(t, config.OutputCostPer1M, retrieved.OutputCostPer1M, 0.0001)
	})

	t.Run("get pricing without entry or default returns error", func(t *testing.T) {
		_, err := registry.GetPricing(ctx, domain.ProviderOpenRouter, "non-existent-model")
		require.Error(t, err)
	})

	t.Run("register with empty model returns error", func(t *testing.T) {
		err := registry.RegisterPricing(ctx, domain.ProviderDeepSeek, "  ", domain.PricingConfig{})
		require.Error(t, err)
	})

	t.Run("register default with empty provider returns error", func(t *testing.T) {
		err := registry.RegisterDefault(ctx, "", domain.PricingConfig{})
		require.Error(t, err)
	})

	t.Run("overwrite existing pricing", func(t *testing.T) {
		err := registry.RegisterPricing(ctx, domain.ProviderDeepSeek, "test-model", domain.PricingConfig{
			InputCostPer1M: 0.01,
		})
		require.NoError(t, err)

		err = registry.RegisterPricing(ctx, domain.ProviderDeepSeek, "TEST-MODEL", domain.PricingConfig{
			InputCostPer1M: 0.05,
		})
		require.NoError(t, err)

		retrieved, err := registry.GetPricing(ctx, domain.ProviderDeepSeek, "test-model")
		require.NoError(t, err)
		require.InDelta(t, 0.05, retrieved.InputCostPer1M, 0.0001)
	})

	t.Run("list is sorted with defaults first", func(t *testing.T) {
		err := registry.RegisterDefault(ctx, domain.ProviderDeepSeek, domain.PricingConfig{InputCostPer1M: 1})
		require.NoError(t, err)

		entries := registry.List(ctx)
		require.NotEmpty(t, entries)
		require.Equal(t, domain.ProviderDeepSeek, entries[0].Provider)
		require.Empty(t, entries[0].Model)
	})
}
