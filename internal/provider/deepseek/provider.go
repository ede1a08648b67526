// Package deepseek describes the DeepSeek chat-completions API.
package deepseek

import (
	"strings"

	"github.com/davidbz/streambench/internal/domain"
)

const (
	completionsPath = "chat/completions"

	ModelChat     = "deepseek-chat"
	ModelReasoner = "deepseek-reasoner"
)

// Provider implements domain.ProviderCapability for DeepSeek.
// DeepSeek accepts every optional request field.
type Provider struct {
	config Config
}

// NewProvider creates a new DeepSeek provider. A blank API key is reported
// when a request is built, not here.
func NewProvider(config Config) *Provider {
	return &Provider{config: config}
}

// Name returns the provider identifier.
func (p *Provider) Name() domain.ProviderName {
	return domain.ProviderDeepSeek
}

// Endpoint returns the chat-completions location.
func (p *Provider) Endpoint() domain.Endpoint {
	return domain.Endpoint{BaseURL: p.config.BaseURL, Path: completionsPath}
}

// AuthHeader returns the bearer token header value.
func (p *Provider) AuthHeader() (string, error) {
	key := strings.TrimSpace(p.config.APIKey)
	if key == "" {
		return "", &domain.ConfigError{Provider: domain.ProviderDeepSeek, Field: "DEEPSEEK_API_KEY"}
	}
	return "Bearer " + key, nil
}

// SupportsField reports true for every optional field.
func (p *Provider) SupportsField(domain.RequestField) bool {
	return true
}

// DefaultModel returns the configured fallback model.
func (p *Provider) DefaultModel() string {
	if p.config.Model == "" {
		return ModelChat
	}
	return p.config.Model
}

// KnownModels returns the models with dedicated pricing.
func (p *Provider) KnownModels() []string {
	return []string{ModelChat, ModelReasoner}
}
