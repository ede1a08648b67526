package http

import (
	"github.com/davidbz/streambench/internal/domain"
)

// Message types sent to clients over SSE and websocket.
const (
	MessageRun       = "run"
	MessageChunk     = "chunk"
	MessageCompleted = "completed"
	MessageError     = "error"
	MessageDone      = "done"
)

// RunRequest starts a run. Variants default to the configured presets.
type RunRequest struct {
	Question string           `json:"question"`
	Variants []domain.Variant `json:"variants,omitempty"`
	Compare  bool             `json:"compare"`
}

// Message is one event delivered to a client.
type Message struct {
	Type       string                    `json:"type"`
	RunID      string                    `json:"run_id,omitempty"`
	OutputKey  string                    `json:"output_key,omitempty"`
	Comparison bool                      `json:"comparison,omitempty"`
	Text       string                    `json:"text,omitempty"`
	Metrics    *domain.CompletionMetrics `json:"metrics,omitempty"`
	Summary    string                    `json:"summary,omitempty"`
	Error      string                    `json:"error,omitempty"`
	ErrorClass domain.ErrorClass         `json:"error_class,omitempty"`
	Links      []string                  `json:"links,omitempty"`
}

func eventMessage(runID, outputKey string, ev domain.StreamEvent) Message {
	msg := Message{RunID: runID, OutputKey: outputKey}

	switch {
	case ev.Err != nil:
		msg.Type = MessageError
		msg.Error = domain.DescribeError(ev.Err)
		msg.ErrorClass = domain.ClassifyError(ev.Err)
	case ev.Kind == domain.EventCompleted:
		msg.Type = MessageCompleted
		msg.Metrics = ev.Metrics
		if ev.Metrics != nil {
			msg.Summary = domain.FormatMetricsBlock(*ev.Metrics)
		}
	default:
		msg.Type = MessageChunk
		msg.Text = ev.Text
	}

	return msg
}
