// Package openai sends chat-completions requests to any OpenAI-compatible
// endpoint through the official SDK's raw request API. The SDK supplies base
// URL resolution, header injection and retries on connection failures, 429
// and 5xx; the response body is handed back unread for line-by-line streaming.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/observability"
)

const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	keepAlive           = 30 * time.Second
)

// Transport implements domain.Transport using the openai-go client.
type Transport struct {
	client openai.Client
}

// NewTransport creates a new SDK-backed transport.
func NewTransport(config Config) *Transport {
	opts := []option.RequestOption{
		option.WithHTTPClient(newHTTPClient(config)),
		option.WithMaxRetries(max(0, config.MaxRetries)),
	}

	return &Transport{
		client: openai.NewClient(opts...),
	}
}

func newHTTPClient(config Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   time.Duration(config.DialTimeout) * time.Second,
		KeepAlive: keepAlive,
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          maxIdleConns,
			MaxIdleConnsPerHost:   maxIdleConnsPerHost,
			IdleConnTimeout:       idleConnTimeout,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: time.Duration(config.ResponseHeaderTimeout) * time.Second,
		},
	}
}

// Send posts the encoded request. Non-success statuses come back as a
// response carrying the error body; only transport failures are errors.
func (t *Transport) Send(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Endpoint.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	logger := observability.FromContext(ctx)

	var raw *http.Response
	err := t.client.Post(ctx, req.Endpoint.Path, json.RawMessage(req.Body), &raw,
		option.WithBaseURL(withTrailingSlash(req.Endpoint.BaseURL)),
		option.WithHeader("Authorization", req.AuthHeader),
		option.WithHeader("Accept", "text/event-stream"),
		option.WithHeader("Content-Type", "application/json"),
	)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Warn("provider rejected request",
				observability.Int("status", apiErr.StatusCode))
			return &domain.TransportResponse{
				StatusCode: apiErr.StatusCode,
				ErrorBody:  errorBody(apiErr),
			}, nil
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if raw == nil {
		return nil, errors.New("no response received")
	}

	if raw.StatusCode < http.StatusOK || raw.StatusCode >= http.StatusMultipleChoices {
		defer raw.Body.Close()
		body, _ := io.ReadAll(raw.Body)
		return &domain.TransportResponse{StatusCode: raw.StatusCode, ErrorBody: string(body)}, nil
	}

	resp := &domain.TransportResponse{StatusCode: raw.StatusCode}
	if raw.Body != nil && raw.Body != http.NoBody {
		resp.Body = NewLineSource(raw.Body)
	}
	return resp, nil
}

// errorBody returns the provider's response body verbatim when the SDK kept it.
func errorBody(apiErr *openai.Error) string {
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		body, readErr := io.ReadAll(apiErr.Response.Body)
		if readErr == nil && len(body) > 0 {
			return string(body)
		}
	}
	if raw := apiErr.RawJSON(); raw != "" {
		return raw
	}
	return ""
}

func withTrailingSlash(baseURL string) string {
	if strings.HasSuffix(baseURL, "/") {
		return baseURL
	}
	return baseURL + "/"
}
