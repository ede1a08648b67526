// Package echo provides an offline transport that answers every request with
// a synthetic SSE stream echoing the request messages. It makes no external
// calls and produces deterministic output for development and tests.
package echo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/observability"
)

const defaultChunkDelay = 10 * time.Millisecond

// Transport implements domain.Transport without network access.
type Transport struct {
	chunkDelay time.Duration
}

// NewTransport creates a new echo transport.
func NewTransport() *Transport {
	return &Transport{chunkDelay: defaultChunkDelay}
}

// WithChunkDelay returns a copy pacing lines by delay. Zero disables pacing.
func (t *Transport) WithChunkDelay(delay time.Duration) *Transport {
	return &Transport{chunkDelay: delay}
}

// Send decodes the request body and returns a stream echoing its messages.
// A request without an Authorization header gets a 401 response.
func (t *Transport) Send(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if strings.TrimSpace(req.AuthHeader) == "" {
		return &domain.TransportResponse{
			StatusCode: 401,
			ErrorBody:  `{"error":{"message":"missing Authorization header"}}`,
		}, nil
	}

	var completion domain.CompletionRequest
	if err := json.Unmarshal(req.Body, &completion); err != nil {
		return &domain.TransportResponse{
			StatusCode: 400,
			ErrorBody:  fmt.Sprintf(`{"error":{"message":%q}}`, err.Error()),
		}, nil
	}

	observability.FromContext(ctx).Debug("echoing request",
		observability.String("model", completion.Model))

	lines, err := buildLines(&completion)
	if err != nil {
		return nil, err
	}

	return &domain.TransportResponse{
		StatusCode: 200,
		Body: &lineSource{
			ctx:   ctx,
			lines: lines,
			delay: t.chunkDelay,
		},
	}, nil
}

type chunkPayload struct {
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Content string `json:"content"`
}

type usagePayload struct {
	Choices []chunkChoice `json:"choices"`
	Usage   usageCounters `json:"usage"`
}

type usageCounters struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// buildLines renders the echoed content one word per data line, then the
// usage block when requested, then the done marker.
func buildLines(req *domain.CompletionRequest) ([]string, error) {
	content := buildEchoContent(req.Messages)
	words := strings.Fields(content)

	lines := make([]string, 0, 2*len(words)+4)
	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " " // Add space between words
		}

		payload, err := json.Marshal(chunkPayload{
			Model:   req.Model,
			Choices: []chunkChoice{{Delta: chunkDelta{Content: delta}}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode chunk: %w", err)
		}
		lines = append(lines, "data: "+string(payload), "")
	}

	if req.StreamOptions != nil && req.StreamOptions.IncludeUsage {
		promptTokens := countTokens(content)
		payload, err := json.Marshal(usagePayload{
			Choices: []chunkChoice{},
			Usage: usageCounters{
				PromptTokens:     promptTokens,
				CompletionTokens: promptTokens, // Echo returns same size
				TotalTokens:      2 * promptTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode usage: %w", err)
		}
		lines = append(lines, "data: "+string(payload), "")
	}

	return append(lines, "data: [DONE]", ""), nil
}

// buildEchoContent constructs the echo response from request messages.
func buildEchoContent(messages []domain.ChatMessage) string {
	var builder strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&builder, "[%s]: %s\n", msg.Role, msg.Content)
	}
	return builder.String()
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	return len(strings.Fields(content))
}

// lineSource replays prepared lines, honouring ctx between lines.
type lineSource struct {
	ctx    context.Context
	lines  []string
	delay  time.Duration
	pos    int
	closed bool
}

func (s *lineSource) Next() (string, error) {
	if s.closed || s.pos >= len(s.lines) {
		return "", io.EOF
	}

	if s.delay > 0 && s.pos > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return "", s.ctx.Err()
		case <-timer.C:
		}
	} else if err := s.ctx.Err(); err != nil {
		return "", err
	}

	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

func (s *lineSource) Close() error {
	s.closed = true
	return nil
}
