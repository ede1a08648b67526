package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 0, cfg.Server.WriteTimeout)
		require.Equal(t, "https://api.deepseek.com", cfg.DeepSeek.BaseURL)
		require.Equal(t, "deepseek-chat", cfg.DeepSeek.Model)
		require.Empty(t, cfg.DeepSeek.APIKey)
		require.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
		require.Equal(t, "meta-llama/llama-3.1-8b-instruct", cfg.OpenRouter.Model)
		require.Equal(t, config.TransportHTTP, cfg.Transport.Kind)
		require.Equal(t, 2, cfg.Transport.HTTP.MaxRetries)
		require.False(t, cfg.Redis.Enabled())
		require.InDelta(t, 2.0, cfg.RateLimit.RequestsPerSecond, 0.0001)
		require.Empty(t, cfg.Presets.Path)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("DEEPSEEK_API_KEY", "sk-deepseek")
		t.Setenv("OPENROUTER_API_KEY", "sk-or")
		t.Setenv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct")
		t.Setenv("TRANSPORT_KIND", "echo")
		t.Setenv("TRANSPORT_MAX_RETRIES", "5")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("RATE_LIMIT_BURST", "20")
		t.Setenv("VARIANTS_FILE", "/etc/streambench/variants.yaml")

		cfg := config.Load()

		require.NotNil(t, cfg)

		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "sk-deepseek", cfg.DeepSeek.APIKey)
		require.Equal(t, "sk-or", cfg.OpenRouter.APIKey)
		require.Equal(t, "mistralai/mistral-7b-instruct", cfg.OpenRouter.Model)
		require.Equal(t, config.TransportEcho, cfg.Transport.Kind)
		require.Equal(t, 5, cfg.Transport.HTTP.MaxRetries)
		require.True(t, cfg.Redis.Enabled())
		require.Equal(t, 20, cfg.RateLimit.Burst)
		require.Equal(t, "/etc/streambench/variants.yaml", cfg.Presets.Path)
	})
}

func TestParseDependenciesConfig(t *testing.T) {
	cfg := &config.Config{}
	deps := config.ParseDependenciesConfig(cfg)

	require.Same(t, &cfg.Server, deps.Server)
	require.Same(t, &cfg.DeepSeek, deps.DeepSeek)
	require.Same(t, &cfg.Transport.HTTP, deps.HTTP)
	require.Same(t, &cfg.Redis, deps.Redis)
}
