package middleware

import (
	"net/http"

	"github.com/davidbz/streambench/internal/config"
)

// Middleware wraps an http.Handler with additional functionality.
// Middlewares can be composed using the Chain function.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middlewares into a single middleware.
// The first middleware is the outermost wrapper (executed first on request).
//
// Example:
//
//	chain := Chain(CORS(corsConfig), RateLimit(limitConfig), Trace())
//	handler := chain(mux)
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		// Apply in reverse order so first middleware wraps outermost.
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BuildMiddlewareChain composes the middleware chain for production.
// Order matters: CORS -> RateLimit -> Trace.
func BuildMiddlewareChain(corsConfig *config.CORSConfig, limitConfig *config.RateLimitConfig) Middleware {
	return Chain(
		CORS(corsConfig),
		RateLimit(limitConfig),
		Trace(),
	)
}
