package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/observability"
)

const maxRequestBytes = 1 << 20

// UsageReader reads aggregated usage back from the ledger.
type UsageReader interface {
	Totals(ctx context.Context) ([]domain.UsageTotal, error)
}

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *domain.Orchestrator
	presets      *config.Presets
	pricing      domain.PricingRegistry
	usage        UsageReader
}

// NewHandler creates a new HTTP handler (DI constructor). A nil usage reader
// makes the usage endpoint report 503.
func NewHandler(
	orchestrator *domain.Orchestrator,
	presets *config.Presets,
	pricing domain.PricingRegistry,
	usage UsageReader,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		presets:      presets,
		pricing:      pricing,
		usage:        usage,
	}
}

func (h *Handler) variants(req *RunRequest) []domain.Variant {
	if len(req.Variants) > 0 {
		return req.Variants
	}
	return h.presets.Variants
}

// HandleRun starts a run and streams its events as SSE. The run is cancelled
// when the client disconnects.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	run, err := h.orchestrator.RunAll(ctx, req.Question, h.variants(&req))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(msg Message) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		flusher.Flush()
		return nil
	}

	h.stream(ctx, run, &req, send)
}

// stream forwards every event of run to send, then runs the comparison when
// asked. A failing send closes the run and stops reading its events.
func (h *Handler) stream(ctx context.Context, run *domain.Run, req *RunRequest, send func(Message) error) {
	logger := observability.FromContext(observability.WithRunID(ctx, run.ID()))

	var sendErr error
	deliver := func(msg Message) {
		if sendErr != nil {
			return
		}
		if sendErr = send(msg); sendErr != nil {
			logger.Warn("client went away", observability.Error(sendErr))
			run.Close()
		}
	}

	deliver(Message{Type: MessageRun, RunID: run.ID()})

	for ev := range run.Events() {
		deliver(eventMessage(run.ID(), ev.OutputKey, ev.Event))
		if sendErr != nil {
			break
		}
	}
	results := run.Wait()

	if req.Compare && sendErr == nil && ctx.Err() == nil && anyCompleted(results) {
		h.compare(ctx, run.ID(), req.Question, results, deliver)
	}

	deliver(Message{Type: MessageDone, RunID: run.ID(), Links: domain.PricingLinks})
}

func (h *Handler) compare(
	ctx context.Context,
	runID string,
	question string,
	results []domain.VariantResult,
	deliver func(Message),
) {
	variant := h.presets.Comparison
	key := variant.OutputKey

	events, err := h.orchestrator.Compare(ctx, question, results, variant)
	if err != nil {
		msg := eventMessage(runID, key, domain.StreamEvent{Err: err})
		msg.Comparison = true
		deliver(msg)
		return
	}

	for ev := range events {
		msg := eventMessage(runID, key, ev)
		msg.Comparison = true
		deliver(msg)
	}
}

func anyCompleted(results []domain.VariantResult) bool {
	for _, result := range results {
		if result.Err == nil && result.Metrics != nil {
			return true
		}
	}
	return false
}

// HandleUsage returns the ledger's per provider/model totals.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.usage == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "usage ledger is disabled")
		return
	}

	totals, err := h.usage.Totals(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("failed to read usage", observability.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to read usage")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"totals": totals})
}

// HandlePricing returns the registered pricing table.
func (h *Handler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pricing": h.pricing.List(r.Context()),
		"links":   domain.PricingLinks,
	})
}

// HandlePresets returns the variants used when a run names none.
func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.presets)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it.
		return
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
