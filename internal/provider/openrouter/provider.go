// Package openrouter describes the OpenRouter OpenAI-compatible gateway.
package openrouter

import (
	"strings"

	"github.com/davidbz/streambench/internal/domain"
)

const (
	completionsPath = "chat/completions"

	ModelLlama = "meta-llama/llama-3.1-8b-instruct"
)

// Provider implements domain.ProviderCapability for OpenRouter.
type Provider struct {
	config Config
}

// NewProvider creates a new OpenRouter provider.
func NewProvider(config Config) *Provider {
	return &Provider{config: config}
}

// Name returns the provider identifier.
func (p *Provider) Name() domain.ProviderName {
	return domain.ProviderOpenRouter
}

// Endpoint returns the chat-completions location.
func (p *Provider) Endpoint() domain.Endpoint {
	return domain.Endpoint{BaseURL: p.config.BaseURL, Path: completionsPath}
}

// AuthHeader returns the bearer token header value.
func (p *Provider) AuthHeader() (string, error) {
	key := strings.TrimSpace(p.config.APIKey)
	if key == "" {
		return "", &domain.ConfigError{Provider: domain.ProviderOpenRouter, Field: "OPENROUTER_API_KEY"}
	}
	return "Bearer " + key, nil
}

// SupportsField reports false for stream_options; usage is then estimated.
func (p *Provider) SupportsField(field domain.RequestField) bool {
	return field != domain.FieldStreamOptions
}

// DefaultModel returns the configured fallback model.
func (p *Provider) DefaultModel() string {
	if p.config.Model == "" {
		return ModelLlama
	}
	return p.config.Model
}

// KnownModels returns the models routed here by name.
func (p *Provider) KnownModels() []string {
	return []string{ModelLlama}
}
