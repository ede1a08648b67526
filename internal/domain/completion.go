package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/davidbz/streambench/internal/observability"
)

const minLatencyMs int64 = 1

// CompletionService drives one variant: it builds the request, sends it,
// parses the streamed lines and emits chunks followed by final metrics.
type CompletionService struct {
	registry       ProviderRegistry
	transport      Transport
	parser         LineParser
	costCalculator CostCalculator
	now            func() time.Time
}

// NewCompletionService creates a new completion service (DI constructor).
func NewCompletionService(
	registry ProviderRegistry,
	transport Transport,
	parser LineParser,
	costCalculator CostCalculator,
) *CompletionService {
	return &CompletionService{
		registry:       registry,
		transport:      transport,
		parser:         parser,
		costCalculator: costCalculator,
		now:            time.Now,
	}
}

// Stream starts a completion run. Setup failures (unknown provider, blank
// credential, non-success status) are returned directly and nothing is
// emitted. On success the returned channel yields zero or more EventChunk
// events and then exactly one terminal event; it must be drained until closed.
func (s *CompletionService) Stream(
	ctx context.Context,
	question string,
	variant Variant,
) (<-chan StreamEvent, error) {
	capability, err := s.resolve(ctx, variant)
	if err != nil {
		return nil, err
	}
	variant.Provider = capability.Name()

	authHeader, err := capability.AuthHeader()
	if err != nil {
		return nil, err
	}

	req := BuildRequest(question, variant, capability.DefaultModel())
	body, err := EncodeRequest(req, capability)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithModel(observability.WithProvider(ctx, string(variant.Provider)), req.Model)
	logger := observability.FromContext(ctx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, cancelled(ctxErr)
	}

	started := s.now()
	resp, err := s.transport.Send(ctx, &TransportRequest{
		Endpoint:   capability.Endpoint(),
		AuthHeader: authHeader,
		Body:       body,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if !resp.Success() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		logger.Warn("provider returned non-success status",
			observability.Int("status", resp.StatusCode))
		return nil, &ProviderError{HTTPStatus: resp.StatusCode, Body: resp.ErrorBody}
	}

	if resp.Body == nil {
		return nil, &ProviderError{HTTPStatus: resp.StatusCode, Body: "Empty body"}
	}

	logger.Debug("stream opened")

	events := make(chan StreamEvent)
	go s.consume(ctx, consumeState{
		question:     question,
		systemPrompt: variant.SystemPrompt,
		provider:     variant.Provider,
		model:        req.Model,
		started:      started,
	}, resp.Body, events)

	return events, nil
}

// resolve picks the variant's provider, routing by model name when the
// provider is left unset.
func (s *CompletionService) resolve(ctx context.Context, variant Variant) (ProviderCapability, error) {
	if variant.Provider != "" {
		capability, err := s.registry.Get(ctx, variant.Provider)
		if err != nil {
			return nil, fmt.Errorf("provider not found: %w", err)
		}
		return capability, nil
	}

	if variant.Model == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	capability, err := s.registry.GetByModel(ctx, variant.Model)
	if err != nil {
		return nil, fmt.Errorf("no provider routes model %s: %w", variant.Model, err)
	}
	return capability, nil
}

type consumeState struct {
	question     string
	systemPrompt string
	provider     ProviderName
	model        string
	started      time.Time
}

func (s *CompletionService) consume(
	ctx context.Context,
	state consumeState,
	source LineSource,
	events chan<- StreamEvent,
) {
	defer close(events)
	defer func() { _ = source.Close() }()

	logger := observability.FromContext(ctx)

	var (
		completion strings.Builder
		usage      *TokenUsage
	)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			events <- StreamEvent{Err: cancelled(ctxErr)}
			return
		}

		line, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				events <- StreamEvent{Err: cancelled(ctxErr)}
				return
			}
			logger.Warn("stream read failed", observability.Error(err))
			events <- StreamEvent{Err: fmt.Errorf("failed to read stream: %w", err)}
			return
		}

		parsed, ok := s.parser.Parse(line)
		if !ok {
			continue
		}

		// The latest usage block wins; Done does not stop reading.
		if parsed.Usage != nil {
			usage = parsed.Usage
		}

		if strings.TrimSpace(parsed.Text) == "" {
			continue
		}

		completion.WriteString(parsed.Text)
		if !emit(ctx, events, StreamEvent{Kind: EventChunk, Text: parsed.Text}) {
			events <- StreamEvent{Err: cancelled(ctx.Err())}
			return
		}
	}

	latency := max(minLatencyMs, s.now().Sub(state.started).Milliseconds())
	normalized := NormalizeUsage(usage, state.question, state.systemPrompt, completion.String())

	cost, err := s.costCalculator.Calculate(ctx, state.provider, state.model, normalized)
	if err != nil {
		logger.Warn("cost calculation failed", observability.Error(err))
	}

	metrics := &CompletionMetrics{
		Provider:         state.provider,
		Model:            state.model,
		LatencyMs:        latency,
		Usage:            normalized,
		EstimatedCostUSD: cost.EstimatedCostUSD,
		PricingSourceURL: cost.PricingSourceURL,
	}

	logger.Debug("stream completed",
		observability.Int64("latency_ms", latency),
		observability.Int("total_tokens", normalized.Total()))

	events <- StreamEvent{Kind: EventCompleted, Metrics: metrics}
}

// emit sends ev unless ctx is done first.
func emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a stream and returns the concatenated text, the metrics and
// the terminal error, if any.
func Collect(events <-chan StreamEvent) (string, *CompletionMetrics, error) {
	var (
		text    strings.Builder
		metrics *CompletionMetrics
		runErr  error
	)

	for ev := range events {
		switch {
		case ev.Err != nil:
			runErr = ev.Err
		case ev.Kind == EventChunk:
			text.WriteString(ev.Text)
		case ev.Kind == EventCompleted:
			metrics = ev.Metrics
		}
	}

	return text.String(), metrics, runErr
}
