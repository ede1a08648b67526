package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/davidbz/streambench/internal/observability"
)

// ErrEmptyQuestion is returned when a run is started without a question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Orchestrator runs several variants of the same question concurrently.
type Orchestrator struct {
	completer Completer
	publisher EventPublisher
	recorder  UsageRecorder
}

// NewOrchestrator creates a new orchestrator (DI constructor).
func NewOrchestrator(completer Completer, publisher EventPublisher, recorder UsageRecorder) *Orchestrator {
	if recorder == nil {
		recorder = NopUsageRecorder{}
	}
	return &Orchestrator{
		completer: completer,
		publisher: publisher,
		recorder:  recorder,
	}
}

// Run is one in-flight fan-out. Events must be drained until closed, or the
// run abandoned with Close; Drain does the former for callers that only need
// the results.
type Run struct {
	id        string
	events    chan VariantEvent
	cancel    context.CancelFunc
	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	order     []string
	results   map[string]*VariantResult
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Events yields every variant's events tagged by output key. Per-key order is
// preserved; events of different keys interleave arbitrarily.
func (r *Run) Events() <-chan VariantEvent {
	return r.events
}

// Cancel stops every in-flight variant. Results already completed are kept.
func (r *Run) Cancel() {
	r.cancel()
}

// Close cancels the run and stops delivering events, so the caller may stop
// reading Events. Results stay available through Wait.
func (r *Run) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.cancel()
	})
}

// Done is closed once every variant has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every variant has finished and returns the results.
func (r *Run) Wait() []VariantResult {
	<-r.done
	return r.Results()
}

// Drain discards remaining events and returns the results.
func (r *Run) Drain() []VariantResult {
	for range r.events {
	}
	return r.Wait()
}

// Results returns a snapshot of every slot in variant order.
func (r *Run) Results() []VariantResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]VariantResult, 0, len(r.order))
	for _, key := range r.order {
		results = append(results, *r.results[key])
	}
	return results
}

func (r *Run) update(key string, fn func(result *VariantResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.results[key])
}

// RunAll starts every variant concurrently against the same question.
func (o *Orchestrator) RunAll(ctx context.Context, question string, variants []Variant) (*Run, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len(variants) == 0 {
		return nil, errors.New("at least one variant is required")
	}

	run := &Run{
		id:      observability.GenerateRunID(),
		events:  make(chan VariantEvent),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
		order:   make([]string, 0, len(variants)),
		results: make(map[string]*VariantResult, len(variants)),
	}

	for _, variant := range variants {
		if strings.TrimSpace(variant.OutputKey) == "" {
			return nil, errors.New("output key cannot be empty")
		}
		if _, exists := run.results[variant.OutputKey]; exists {
			return nil, fmt.Errorf("duplicate output key: %s", variant.OutputKey)
		}
		run.order = append(run.order, variant.OutputKey)
		run.results[variant.OutputKey] = &VariantResult{OutputKey: variant.OutputKey, Variant: variant}
	}

	runCtx, cancel := context.WithCancel(observability.WithRunID(ctx, run.id))
	run.cancel = cancel

	logger := observability.FromContext(runCtx)
	logger.Info("run started", observability.Int("variants", len(variants)))

	var wg sync.WaitGroup
	for _, variant := range variants {
		wg.Add(1)
		go func(variant Variant) {
			defer wg.Done()
			o.runVariant(runCtx, run, question, variant)
		}(variant)
	}

	go func() {
		wg.Wait()
		close(run.events)
		o.publishRunCompleted(runCtx, run)
		cancel()
		close(run.done)
	}()

	return run, nil
}

func (o *Orchestrator) runVariant(ctx context.Context, run *Run, question string, variant Variant) {
	key := variant.OutputKey
	ctx = observability.WithOutputKey(ctx, key)

	stream, err := o.completer.Stream(ctx, question, variant)
	if err != nil {
		o.fail(ctx, run, key, err)
		run.deliver(VariantEvent{OutputKey: key, Event: StreamEvent{Err: err}})
		return
	}

	// The stream is always drained so the completion goroutine can finish.
	for ev := range stream {
		switch {
		case ev.Err != nil:
			o.fail(ctx, run, key, ev.Err)
			run.deliver(VariantEvent{OutputKey: key, Event: ev})
		case ev.Kind == EventChunk:
			if run.offer(ctx, VariantEvent{OutputKey: key, Event: ev}) {
				run.update(key, func(result *VariantResult) { result.Text += ev.Text })
			}
		case ev.Kind == EventCompleted:
			o.complete(ctx, run, key, ev.Metrics)
			run.deliver(VariantEvent{OutputKey: key, Event: ev})
		}
	}
}

// offer hands a chunk to the caller unless the run is cancelled first.
// Chunks are never delivered once ctx is done.
func (r *Run) offer(ctx context.Context, ev VariantEvent) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-r.closed:
		return false
	}
}

// deliver hands a terminal event to the caller. It blocks until read unless
// the run was closed.
func (r *Run) deliver(ev VariantEvent) {
	select {
	case r.events <- ev:
	case <-r.closed:
	}
}

func (o *Orchestrator) complete(ctx context.Context, run *Run, key string, metrics *CompletionMetrics) {
	run.update(key, func(result *VariantResult) { result.Metrics = metrics })
	if metrics == nil {
		return
	}

	// The ledger write must survive a cancel that lands right after completion.
	recordCtx := context.WithoutCancel(ctx)
	if err := o.recorder.Record(recordCtx, UsageRecord{RunID: run.id, OutputKey: key, Metrics: *metrics}); err != nil {
		observability.FromContext(ctx).Warn("failed to record usage", observability.Error(err))
	}

	o.publish(recordCtx, observability.EventVariantCompleted, map[string]interface{}{
		"run_id":             run.id,
		"output_key":         key,
		"provider":           string(metrics.Provider),
		"model":              metrics.Model,
		"latency_ms":         metrics.LatencyMs,
		"total_tokens":       metrics.Usage.Total(),
		"estimated_cost_usd": metrics.EstimatedCostUSD,
	})
}

func (o *Orchestrator) fail(ctx context.Context, run *Run, key string, err error) {
	run.update(key, func(result *VariantResult) { result.Err = err })

	eventType := observability.EventVariantFailed
	if IsCancelled(err) {
		eventType = observability.EventVariantCancelled
	}

	o.publish(context.WithoutCancel(ctx), eventType, map[string]interface{}{
		"run_id":      run.id,
		"output_key":  key,
		"error_class": string(ClassifyError(err)),
		"error":       err.Error(),
	})
}

func (o *Orchestrator) publishRunCompleted(ctx context.Context, run *Run) {
	var completed, failed, cancelledCount int
	for _, result := range run.Results() {
		switch {
		case result.Err == nil && result.Metrics != nil:
			completed++
		case IsCancelled(result.Err):
			cancelledCount++
		default:
			failed++
		}
	}

	o.publish(context.WithoutCancel(ctx), observability.EventRunCompleted, map[string]interface{}{
		"run_id":    run.id,
		"completed": completed,
		"failed":    failed,
		"cancelled": cancelledCount,
	})
}

func (o *Orchestrator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if o.publisher == nil {
		return
	}
	o.publisher.Publish(ctx, eventType, data)
}

// Compare streams a critic run over the retained results of a finished run.
func (o *Orchestrator) Compare(
	ctx context.Context,
	question string,
	results []VariantResult,
	variant Variant,
) (<-chan StreamEvent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if variant.SystemPrompt == "" {
		variant.SystemPrompt = ComparisonSystemPrompt
	}

	prompt := BuildComparisonPrompt(question, results)
	return o.completer.Stream(ctx, prompt, variant)
}
