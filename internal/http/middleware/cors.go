package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/streambench/internal/config"
)

// CORS handles Cross-Origin Resource Sharing for browser clients of the
// run endpoints.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return passthrough
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}

func passthrough(next http.Handler) http.Handler {
	return next
}
