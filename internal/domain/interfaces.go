package domain

import "context"

// RequestField names an optional CompletionRequest field a provider may not accept.
type RequestField string

const (
	FieldMaxTokens        RequestField = "max_tokens"
	FieldTopP             RequestField = "top_p"
	FieldFrequencyPenalty RequestField = "frequency_penalty"
	FieldPresencePenalty  RequestField = "presence_penalty"
	FieldStreamOptions    RequestField = "stream_options"
)

// Endpoint locates a provider's chat-completions resource.
type Endpoint struct {
	BaseURL string
	Path    string
}

// ProviderCapability describes what differs between providers.
type ProviderCapability interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Endpoint returns where chat completions are posted.
	Endpoint() Endpoint

	// AuthHeader returns the Authorization header value, or a ConfigError
	// when the credential is blank.
	AuthHeader() (string, error)

	// SupportsField reports whether the provider accepts an optional field.
	SupportsField(field RequestField) bool

	// DefaultModel is used when a variant leaves the model unset.
	DefaultModel() string

	// KnownModels lists the models this provider answers for by name.
	KnownModels() []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider ProviderCapability) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, name ProviderName) (ProviderCapability, error)

	// List returns all available providers.
	List(ctx context.Context) ([]ProviderName, error)

	// GetByModel retrieves the provider that lists the model.
	GetByModel(ctx context.Context, model string) (ProviderCapability, error)
}

// TransportRequest is one POST of an encoded CompletionRequest.
type TransportRequest struct {
	Endpoint   Endpoint
	AuthHeader string
	Body       []byte
}

// LineSource yields raw response lines lazily. Next returns io.EOF once the
// body is exhausted. Close may be called at any point to abandon the body.
type LineSource interface {
	Next() (string, error)
	Close() error
}

// TransportResponse is what the transport hands back for a sent request.
type TransportResponse struct {
	StatusCode int
	ErrorBody  string
	Body       LineSource
}

// Success reports whether the status code is 2xx.
func (r *TransportResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends requests to providers. Non-success statuses are returned
// as responses; only failures to obtain any response are errors.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// ParsedLine is the combined content of one SSE line.
type ParsedLine struct {
	Text  string
	Usage *TokenUsage
	Done  bool
}

// LineParser decodes SSE lines. ok is false when the line carries nothing.
type LineParser interface {
	Parse(line string) (ParsedLine, bool)
}

// Completer runs one variant and streams its events.
type Completer interface {
	Stream(ctx context.Context, question string, variant Variant) (<-chan StreamEvent, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// UsageRecorder stores metrics of completed variants.
type UsageRecorder interface {
	Record(ctx context.Context, record UsageRecord) error
}

// NopUsageRecorder discards every record.
type NopUsageRecorder struct{}

// Record implements UsageRecorder.
func (NopUsageRecorder) Record(context.Context, UsageRecord) error {
	return nil
}
