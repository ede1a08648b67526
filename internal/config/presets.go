package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/provider/deepseek"
	"github.com/davidbz/streambench/internal/provider/openrouter"
)

// Shared sampling parameters of the built-in presets.
const (
	presetMaxTokens   = 1000
	presetTemperature = 0.4
	presetTopP        = 0.9

	comparisonOutputKey = "output4"
)

// Presets is the set of variants a run uses when the caller supplies none,
// plus the variant that writes the comparison.
type Presets struct {
	Variants   []domain.Variant `json:"variants"   yaml:"variants"`
	Comparison domain.Variant   `json:"comparison" yaml:"comparison"`
}

func preset(outputKey string, provider domain.ProviderName, model string) domain.Variant {
	return domain.Variant{
		OutputKey:   outputKey,
		Provider:    provider,
		Model:       model,
		MaxTokens:   presetMaxTokens,
		TopP:        presetTopP,
		Temperature: presetTemperature,
	}
}

// DefaultPresets compares a small open model against both DeepSeek models.
func DefaultPresets() *Presets {
	return &Presets{
		Variants: []domain.Variant{
			preset("output1", domain.ProviderOpenRouter, openrouter.ModelLlama),
			preset("output2", domain.ProviderDeepSeek, deepseek.ModelChat),
			preset("output3", domain.ProviderDeepSeek, deepseek.ModelReasoner),
		},
		Comparison: preset(comparisonOutputKey, domain.ProviderDeepSeek, deepseek.ModelChat),
	}
}

// LoadPresets reads presets from a YAML file. An empty path yields the defaults.
func LoadPresets(path string) (*Presets, error) {
	if path == "" {
		return DefaultPresets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	return ParsePresets(data)
}

// ParsePresets decodes and validates YAML presets. A missing comparison
// entry falls back to the default one.
func ParsePresets(data []byte) (*Presets, error) {
	var presets Presets
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	if presets.Comparison.Provider == "" {
		presets.Comparison = DefaultPresets().Comparison
	}
	if presets.Comparison.OutputKey == "" {
		presets.Comparison.OutputKey = comparisonOutputKey
	}

	if err := presets.Validate(); err != nil {
		return nil, err
	}

	return &presets, nil
}

// Validate checks output keys and providers.
func (p *Presets) Validate() error {
	if len(p.Variants) == 0 {
		return errors.New("presets must define at least one variant")
	}

	seen := make(map[string]struct{}, len(p.Variants))
	for _, variant := range p.Variants {
		key := strings.TrimSpace(variant.OutputKey)
		if key == "" {
			return errors.New("variant output_key cannot be empty")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate output key: %s", key)
		}
		seen[key] = struct{}{}

		if variant.Provider == "" && variant.Model != "" {
			continue // routed by model
		}
		if err := validateProvider(variant.Provider); err != nil {
			return fmt.Errorf("variant %s: %w", key, err)
		}
	}

	if err := validateProvider(p.Comparison.Provider); err != nil {
		return fmt.Errorf("comparison: %w", err)
	}

	return nil
}

func validateProvider(name domain.ProviderName) error {
	switch name {
	case domain.ProviderDeepSeek, domain.ProviderOpenRouter:
		return nil
	default:
		return fmt.Errorf("unknown provider %q", name)
	}
}

// Variant returns the preset with the given output key.
func (p *Presets) Variant(outputKey string) (domain.Variant, bool) {
	for _, variant := range p.Variants {
		if variant.OutputKey == outputKey {
			return variant, true
		}
	}
	return domain.Variant{}, false
}
