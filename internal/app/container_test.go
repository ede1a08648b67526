package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/app"
	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/domain"
	apihttp "github.com/davidbz/streambench/internal/http"
	ledger "github.com/davidbz/streambench/internal/ledger/redis"
	"github.com/davidbz/streambench/internal/transport/echo"
	"github.com/davidbz/streambench/internal/transport/openai"
)

func echoConfig(cfg *config.Config) {
	cfg.Transport.Kind = config.TransportEcho
	cfg.DeepSeek.APIKey = "sk-deepseek"
	cfg.OpenRouter.APIKey = "sk-openrouter"
	cfg.Redis = ledger.Config{}
}

func TestNewContainer_RunsEndToEnd(t *testing.T) {
	container, err := app.NewContainer(echoConfig)
	require.NoError(t, err)

	err = container.Invoke(func(orchestrator *domain.Orchestrator, presets *config.Presets, recorder domain.UsageRecorder) {
		require.IsType(t, domain.NopUsageRecorder{}, recorder)

		run, err := orchestrator.RunAll(context.Background(), "hello", presets.Variants)
		require.NoError(t, err)

		results := run.Drain()
		require.Len(t, results, 3)
		for _, result := range results {
			require.NoError(t, result.Err)
			require.Equal(t, "[user]: hello", result.Text)
		}
	})
	require.NoError(t, err)
}

func TestNewContainer_Ledger(t *testing.T) {
	server := miniredis.RunT(t)

	container, err := app.NewContainer(echoConfig, func(cfg *config.Config) {
		cfg.Redis = ledger.Config{Addr: server.Addr(), KeyPrefix: "bench"}
	})
	require.NoError(t, err)

	err = container.Invoke(func(orchestrator *domain.Orchestrator, presets *config.Presets, usage apihttp.UsageReader) {
		require.NotNil(t, usage)

		run, err := orchestrator.RunAll(context.Background(), "hello", presets.Variants)
		require.NoError(t, err)
		run.Drain()

		totals, err := usage.Totals(context.Background())
		require.NoError(t, err)
		require.Len(t, totals, 3)
	})
	require.NoError(t, err)
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		kind    string
		want    interface{}
		wantErr bool
	}{
		{kind: config.TransportHTTP, want: &openai.Transport{}},
		{kind: "", want: &openai.Transport{}},
		{kind: config.TransportEcho, want: &echo.Transport{}},
		{kind: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			transport, err := app.NewTransport(&config.TransportConfig{Kind: tt.kind})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.IsType(t, tt.want, transport)
		})
	}
}

func TestNewLedger_Disabled(t *testing.T) {
	l, err := app.NewLedger(&ledger.Config{})
	require.NoError(t, err)
	require.Nil(t, l)
}

func TestNewPricingRegistry(t *testing.T) {
	pricing, err := app.NewPricingRegistry()
	require.NoError(t, err)

	cfg, err := pricing.GetPricing(context.Background(), domain.ProviderDeepSeek, "deepseek-chat")
	require.NoError(t, err)
	require.InDelta(t, 0.14, cfg.InputCostPer1M, 1e-9)
}
