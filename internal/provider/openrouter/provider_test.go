package openrouter_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/provider/openrouter"
)

func TestProvider_AuthHeader(t *testing.T) {
	provider := openrouter.NewProvider(openrouter.Config{})

	_, err := provider.AuthHeader()
	require.Error(t, err)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, domain.ProviderOpenRouter, cfgErr.Provider)
}

func TestProvider_EncodeOmitsStreamOptions(t *testing.T) {
	provider := openrouter.NewProvider(openrouter.Config{APIKey: "k"})

	variant := domain.DefaultVariant("output1")
	variant.Provider = domain.ProviderOpenRouter
	variant.MaxTokens = 1000

	body, err := domain.EncodeRequest(domain.BuildRequest("hi", variant, provider.DefaultModel()), provider)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &wire))
	require.NotContains(t, wire, "stream_options")
	require.Equal(t, openrouter.ModelLlama, wire["model"])
	require.InDelta(t, 1000, wire["max_tokens"], 0)
}

func TestRegisterPricing(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	require.NoError(t, openrouter.RegisterPricing(ctx, registry))

	pricing, err := registry.GetPricing(ctx, domain.ProviderOpenRouter, "any/model")
	require.NoError(t, err)
	require.InDelta(t, 0.18, pricing.InputCostPer1M, 1e-9)
	require.Equal(t, "https://openrouter.ai/models", pricing.SourceURL)
}
