package openai_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/transport/openai"
)

func newTestTransport() *openai.Transport {
	return openai.NewTransport(openai.Config{MaxRetries: 0, DialTimeout: 5, ResponseHeaderTimeout: 5})
}

func readAll(t *testing.T, source domain.LineSource) []string {
	t.Helper()

	var lines []string
	for {
		line, err := source.Next()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestTransport_Send(t *testing.T) {
	t.Run("streams lines on success", func(t *testing.T) {
		var (
			gotAuth   string
			gotAccept string
			gotPath   string
			gotBody   string
		)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"X\"}}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n")
		}))
		defer server.Close()

		resp, err := newTestTransport().Send(context.Background(), &domain.TransportRequest{
			Endpoint:   domain.Endpoint{BaseURL: server.URL + "/v1", Path: "chat/completions"},
			AuthHeader: "Bearer sk-test",
			Body:       []byte(`{"model":"m","stream":true}`),
		})
		require.NoError(t, err)
		require.True(t, resp.Success())
		require.NotNil(t, resp.Body)
		defer resp.Body.Close()

		lines := readAll(t, resp.Body)
		require.Equal(t, []string{
			`data: {"choices":[{"delta":{"content":"X"}}]}`,
			"",
			"data: [DONE]",
		}, lines)

		require.Equal(t, "Bearer sk-test", gotAuth)
		require.Equal(t, "text/event-stream", gotAccept)
		require.Equal(t, "/v1/chat/completions", gotPath)
		require.JSONEq(t, `{"model":"m","stream":true}`, gotBody)
	})

	t.Run("non-success status is a response not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"auth"}}`)
		}))
		defer server.Close()

		resp, err := newTestTransport().Send(context.Background(), &domain.TransportRequest{
			Endpoint:   domain.Endpoint{BaseURL: server.URL, Path: "chat/completions"},
			AuthHeader: "Bearer bad",
			Body:       []byte(`{}`),
		})
		require.NoError(t, err)
		require.False(t, resp.Success())
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.ErrorBody, "invalid api key")
		require.Nil(t, resp.Body)
	})

	t.Run("unreachable host is an error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestTransport().Send(context.Background(), &domain.TransportRequest{
			Endpoint: domain.Endpoint{BaseURL: url, Path: "chat/completions"},
			Body:     []byte(`{}`),
		})
		require.Error(t, err)
	})

	t.Run("empty base URL is rejected", func(t *testing.T) {
		_, err := newTestTransport().Send(context.Background(), &domain.TransportRequest{})
		require.Error(t, err)
	})

	t.Run("nil request is rejected", func(t *testing.T) {
		_, err := newTestTransport().Send(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestLineSource(t *testing.T) {
	t.Run("handles missing trailing newline", func(t *testing.T) {
		source := openai.NewLineSource(io.NopCloser(strings.NewReader("a\nb")))
		require.Equal(t, []string{"a", "b"}, readAll(t, source))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		source := openai.NewLineSource(io.NopCloser(strings.NewReader("a\n")))
		require.NoError(t, source.Close())
		require.NoError(t, source.Close())
	})

	t.Run("long lines are accepted", func(t *testing.T) {
		long := strings.Repeat("x", 100*1024)
		source := openai.NewLineSource(io.NopCloser(strings.NewReader(long + "\n")))
		require.Equal(t, []string{long}, readAll(t, source))
	})
}
