package echo_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/sse"
	"github.com/davidbz/streambench/internal/transport/echo"
)

func encode(t *testing.T, req *domain.CompletionRequest) []byte {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func TestTransport_Send(t *testing.T) {
	transport := echo.NewTransport().WithChunkDelay(0)
	ctx := context.Background()

	t.Run("echoes messages as sse lines", func(t *testing.T) {
		body := encode(t, &domain.CompletionRequest{
			Model:         "echo",
			Stream:        true,
			Messages:      []domain.ChatMessage{{Role: domain.RoleUser, Content: "Hello world"}},
			StreamOptions: &domain.StreamOptions{IncludeUsage: true},
		})

		resp, err := transport.Send(ctx, &domain.TransportRequest{AuthHeader: "Bearer x", Body: body})
		require.NoError(t, err)
		require.True(t, resp.Success())

		var (
			text  string
			usage *domain.TokenUsage
			done  bool
		)
		for {
			line, nextErr := resp.Body.Next()
			if nextErr == io.EOF {
				break
			}
			require.NoError(t, nextErr)

			parsed, ok := sse.Parse(line)
			if !ok {
				continue
			}
			text += parsed.Text
			if parsed.Usage != nil {
				usage = parsed.Usage
			}
			done = done || parsed.Done
		}

		require.Equal(t, "[user]: Hello world", text)
		require.True(t, done)
		require.NotNil(t, usage)
		require.Equal(t, 3, usage.Prompt())
		require.Equal(t, 6, usage.Total())
	})

	t.Run("omits usage unless requested", func(t *testing.T) {
		body := encode(t, &domain.CompletionRequest{
			Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
		})

		resp, err := transport.Send(ctx, &domain.TransportRequest{AuthHeader: "Bearer x", Body: body})
		require.NoError(t, err)

		for {
			line, nextErr := resp.Body.Next()
			if nextErr == io.EOF {
				break
			}
			parsed, _ := sse.Parse(line)
			require.Nil(t, parsed.Usage)
		}
	})

	t.Run("missing auth header returns 401", func(t *testing.T) {
		resp, err := transport.Send(ctx, &domain.TransportRequest{Body: []byte(`{}`)})
		require.NoError(t, err)
		require.False(t, resp.Success())
		require.Equal(t, 401, resp.StatusCode)
		require.Nil(t, resp.Body)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		resp, err := transport.Send(ctx, &domain.TransportRequest{AuthHeader: "Bearer x", Body: []byte(`{`)})
		require.NoError(t, err)
		require.Equal(t, 400, resp.StatusCode)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := transport.Send(ctx, nil)
		require.Error(t, err)
	})
}

func TestTransport_CancelledContextStopsLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	body := encode(t, &domain.CompletionRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "one two three"}},
	})
	resp, err := echo.NewTransport().Send(ctx, &domain.TransportRequest{AuthHeader: "Bearer x", Body: body})
	require.NoError(t, err)

	_, err = resp.Body.Next()
	require.NoError(t, err)

	cancel()

	_, err = resp.Body.Next()
	require.ErrorIs(t, err, context.Canceled)
}
