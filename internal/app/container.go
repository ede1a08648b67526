// Package app wires the benchmark services into a dig container shared by
// the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/domain"
	apihttp "github.com/davidbz/streambench/internal/http"
	"github.com/davidbz/streambench/internal/http/middleware"
	ledger "github.com/davidbz/streambench/internal/ledger/redis"
	"github.com/davidbz/streambench/internal/observability"
	"github.com/davidbz/streambench/internal/provider/deepseek"
	"github.com/davidbz/streambench/internal/provider/openrouter"
	"github.com/davidbz/streambench/internal/provider/registry"
	"github.com/davidbz/streambench/internal/sse"
	"github.com/davidbz/streambench/internal/transport/echo"
	"github.com/davidbz/streambench/internal/transport/openai"
)

const redisConnectTimeout = 5 * time.Second

// Option adjusts the loaded configuration before anything is built.
type Option func(cfg *config.Config)

// NewContainer builds the dependency graph. Constructors run lazily on Invoke.
func NewContainer(opts ...Option) (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor interface{}
		opts        []dig.ProvideOption
	}{
		// Configuration
		{name: "config", constructor: func() *config.Config {
			cfg := config.Load()
			for _, opt := range opts {
				opt(cfg)
			}
			return cfg
		}},
		{name: "config dependencies", constructor: config.ParseDependenciesConfig},
		{name: "presets", constructor: func(cfg *config.PresetsConfig) (*config.Presets, error) {
			return config.LoadPresets(cfg.Path)
		}},

		// Observability
		{name: "logger", constructor: func(cfg *config.LogConfig) (*zap.Logger, error) {
			return observability.InitLogger(cfg.Development)
		}},
		{name: "event bus", constructor: func(logger *zap.Logger) domain.EventPublisher {
			return observability.NewEventBus(logger)
		}},

		// Providers and pricing
		{name: "registry", constructor: NewProviderRegistry},
		{name: "pricing", constructor: NewPricingRegistry},
		{name: "cost calculator", constructor: func(pricing domain.PricingRegistry) domain.CostCalculator {
			return domain.NewStandardCostCalculator(pricing)
		}},

		// Transport and parsing
		{name: "transport", constructor: NewTransport},
		{name: "line parser", constructor: func() domain.LineParser {
			return sse.NewParser()
		}},

		// Usage ledger
		{name: "ledger", constructor: NewLedger},
		{name: "usage recorder", constructor: func(l *ledger.Ledger) domain.UsageRecorder {
			if l == nil {
				return domain.NopUsageRecorder{}
			}
			return l
		}},
		{name: "usage reader", constructor: func(l *ledger.Ledger) apihttp.UsageReader {
			if l == nil {
				return nil
			}
			return l
		}},

		// Domain services
		{name: "completion service", constructor: domain.NewCompletionService, opts: []dig.ProvideOption{
			dig.As(new(domain.Completer)),
		}},
		{name: "orchestrator", constructor: domain.NewOrchestrator},

		// HTTP layer
		{name: "middleware", constructor: middleware.BuildMiddlewareChain},
		{name: "HTTP handler", constructor: apihttp.NewHandler},
		{name: "HTTP server", constructor: apihttp.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor, p.opts...); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

// NewProviderRegistry registers every provider. Blank credentials surface
// as ConfigError when a run uses the provider.
func NewProviderRegistry(dsConfig *deepseek.Config, orConfig *openrouter.Config) (domain.ProviderRegistry, error) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	if err := reg.Register(ctx, deepseek.NewProvider(*dsConfig)); err != nil {
		return nil, fmt.Errorf("failed to register DeepSeek provider: %w", err)
	}
	if err := reg.Register(ctx, openrouter.NewProvider(*orConfig)); err != nil {
		return nil, fmt.Errorf("failed to register OpenRouter provider: %w", err)
	}

	return reg, nil
}

// NewPricingRegistry loads the static pricing of every provider.
func NewPricingRegistry() (domain.PricingRegistry, error) {
	ctx := context.Background()
	pricing := domain.NewInMemoryPricingRegistry()

	if err := deepseek.RegisterPricing(ctx, pricing); err != nil {
		return nil, err
	}
	if err := openrouter.RegisterPricing(ctx, pricing); err != nil {
		return nil, err
	}

	return pricing, nil
}

// NewTransport selects the transport named by the configuration.
func NewTransport(cfg *config.TransportConfig) (domain.Transport, error) {
	switch cfg.Kind {
	case config.TransportHTTP, "":
		return openai.NewTransport(cfg.HTTP), nil
	case config.TransportEcho:
		return echo.NewTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}

// NewLedger connects the Redis usage ledger. It returns nil when Redis is
// not configured.
func NewLedger(cfg *ledger.Config) (*ledger.Ledger, error) {
	if !cfg.Enabled() {
		return nil, nil //nolint:nilnil // disabled ledger
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	client, err := ledger.NewClient(ctx, *cfg)
	if err != nil {
		return nil, err
	}

	return ledger.NewLedger(client, *cfg), nil
}
