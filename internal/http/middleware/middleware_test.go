package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(tag("first"), tag("second"), tag("third"))(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTrace_SetsHeadersAndKeepsFlusher(t *testing.T) {
	var flushable bool
	handler := middleware.Trace()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Trace-Id"))
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
	require.True(t, flushable)
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects after burst", func(t *testing.T) {
		handler := middleware.RateLimit(&config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})(okHandler())

		codes := make([]int, 0, 3)
		for range 3 {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("buckets are per client", func(t *testing.T) {
		handler := middleware.RateLimit(&config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})(okHandler())

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
			req.RemoteAddr = addr
			handler.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("health is never limited", func(t *testing.T) {
		handler := middleware.RateLimit(&config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})(okHandler())

		for range 3 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		handler := middleware.RateLimit(&config.RateLimitConfig{})(okHandler())
		for range 5 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/runs", nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestCORS_Preflight(t *testing.T) {
	handler := middleware.CORS(&config.CORSConfig{
		AllowedOrigins: []string{"https://bench.example"},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/runs", nil)
	req.Header.Set("Origin", "https://bench.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "https://bench.example", w.Header().Get("Access-Control-Allow-Origin"))
}
