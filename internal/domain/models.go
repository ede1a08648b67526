package domain

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ProviderName identifies an upstream chat-completions provider.
type ProviderName string

const (
	// ProviderDeepSeek is the primary provider.
	ProviderDeepSeek ProviderName = "deepseek"

	// ProviderOpenRouter is the OpenAI-compatible gateway.
	ProviderOpenRouter ProviderName = "openrouter"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage represents a single chat message.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// StreamOptions asks the provider to append a usage block to the stream.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// CompletionRequest is the wire body sent to a chat-completions endpoint.
// Optional fields are nil when the provider does not accept them.
type CompletionRequest struct {
	Model            string         `json:"model"`
	Stream           bool           `json:"stream"`
	Messages         []ChatMessage  `json:"messages"`
	MaxTokens        *int           `json:"max_tokens,omitempty"`
	TopP             *float64       `json:"top_p,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
	StreamOptions    *StreamOptions `json:"stream_options,omitempty"`
	Temperature      float64        `json:"temperature"`
}

// TokenUsage tracks token consumption. Nil counters are unknown.
type TokenUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Tokens returns a pointer to v, for building TokenUsage literals.
func Tokens(v int) *int {
	return &v
}

// IsEmpty reports whether no counter is known.
func (u TokenUsage) IsEmpty() bool {
	return u.PromptTokens == nil && u.CompletionTokens == nil && u.TotalTokens == nil
}

// Prompt returns the prompt token count, or 0 when unknown.
func (u TokenUsage) Prompt() int {
	return valueOrZero(u.PromptTokens)
}

// Completion returns the completion token count, or 0 when unknown.
func (u TokenUsage) Completion() int {
	return valueOrZero(u.CompletionTokens)
}

// Total returns the total token count, or 0 when unknown.
func (u TokenUsage) Total() int {
	return valueOrZero(u.TotalTokens)
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// CompletionMetrics describes one finished completion run.
type CompletionMetrics struct {
	Provider         ProviderName `json:"provider"`
	Model            string       `json:"model"`
	LatencyMs        int64        `json:"latency_ms"`
	Usage            TokenUsage   `json:"usage"`
	EstimatedCostUSD float64      `json:"estimated_cost_usd"`
	PricingSourceURL string       `json:"pricing_source_url"`
}

// EventKind tags a StreamEvent.
type EventKind int

const (
	// EventChunk carries a non-empty text delta.
	EventChunk EventKind = iota

	// EventCompleted carries the final metrics and is always last.
	EventCompleted
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StreamEvent is one element of a completion run's event sequence.
// An event with a non-nil Err terminates the sequence instead of EventCompleted.
type StreamEvent struct {
	Kind    EventKind
	Text    string
	Metrics *CompletionMetrics
	Err     error
}

// Terminal reports whether no further events follow this one.
func (e StreamEvent) Terminal() bool {
	return e.Err != nil || e.Kind == EventCompleted
}

// Variant is one fully specified configuration for a completion run.
type Variant struct {
	OutputKey        string       `json:"output_key"              yaml:"output_key"`
	Provider         ProviderName `json:"provider"                yaml:"provider"`
	Model            string       `json:"model,omitempty"         yaml:"model"`
	SystemPrompt     string       `json:"system_prompt,omitempty" yaml:"system_prompt"`
	MaxTokens        int          `json:"max_tokens,omitempty"    yaml:"max_tokens"`
	TopP             float64      `json:"top_p"                   yaml:"top_p"`
	FrequencyPenalty float64      `json:"frequency_penalty"       yaml:"frequency_penalty"`
	PresencePenalty  float64      `json:"presence_penalty"        yaml:"presence_penalty"`
	Temperature      float64      `json:"temperature"             yaml:"temperature"`
}

// DefaultVariant returns a variant with the provider's neutral sampling defaults.
func DefaultVariant(outputKey string) Variant {
	return Variant{
		OutputKey:        outputKey,
		Provider:         ProviderDeepSeek,
		TopP:             1.0,
		FrequencyPenalty: 0.0,
		PresencePenalty:  0.0,
		Temperature:      1.0,
	}
}

// decodedVariant starts a decoded variant from the sampling defaults. The
// provider stays empty so a model-only variant can still be routed by model.
func decodedVariant() Variant {
	variant := DefaultVariant("")
	variant.Provider = ""
	return variant
}

// variantFields drops Variant's methods so decoding does not recurse.
type variantFields Variant

// UnmarshalJSON keeps the sampling defaults for omitted fields.
func (v *Variant) UnmarshalJSON(data []byte) error {
	fields := variantFields(decodedVariant())
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*v = Variant(fields)
	return nil
}

// UnmarshalYAML keeps the sampling defaults for omitted fields.
func (v *Variant) UnmarshalYAML(value *yaml.Node) error {
	fields := variantFields(decodedVariant())
	if err := value.Decode(&fields); err != nil {
		return err
	}
	*v = Variant(fields)
	return nil
}

// VariantEvent is a StreamEvent tagged with the slot it belongs to.
type VariantEvent struct {
	OutputKey string
	Event     StreamEvent
}

// VariantResult is the retained outcome of one variant in a run.
type VariantResult struct {
	OutputKey string
	Variant   Variant
	Text      string
	Metrics   *CompletionMetrics
	Err       error
}

// UsageRecord is what the usage ledger stores for a completed variant.
type UsageRecord struct {
	RunID     string
	OutputKey string
	Metrics   CompletionMetrics
}

// UsageTotal aggregates every recorded run of one provider/model pair.
type UsageTotal struct {
	Provider         ProviderName `json:"provider"`
	Model            string       `json:"model"`
	Runs             int64        `json:"runs"`
	PromptTokens     int64        `json:"prompt_tokens"`
	CompletionTokens int64        `json:"completion_tokens"`
	TotalTokens      int64        `json:"total_tokens"`
	LatencyMs        int64        `json:"latency_ms"`
	CostUSD          float64      `json:"cost_usd"`
}
