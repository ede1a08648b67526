package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	ledger "github.com/davidbz/streambench/internal/ledger/redis"
	"github.com/davidbz/streambench/internal/provider/deepseek"
	"github.com/davidbz/streambench/internal/provider/openrouter"
	"github.com/davidbz/streambench/internal/transport/openai"
)

// Transport kinds.
const (
	TransportHTTP = "http"
	TransportEcho = "echo"
)

// Config represents the benchmark service configuration.
type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	DeepSeek   deepseek.Config
	OpenRouter openrouter.Config
	Transport  TransportConfig
	Redis      ledger.Config
	Presets    PresetsConfig
}

// ServerConfig contains HTTP server settings. WriteTimeout stays 0 so
// streamed runs are not cut off.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"0"`
	IdleTimeout     int `env:"SERVER_IDLE_TIMEOUT"     envDefault:"120"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RateLimitConfig limits requests per client IP. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS"   envDefault:"2"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Development bool `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// TransportConfig selects how requests reach providers.
type TransportConfig struct {
	Kind string `env:"TRANSPORT_KIND" envDefault:"http"`
	HTTP openai.Config
}

// PresetsConfig points at an optional YAML file of variant presets.
type PresetsConfig struct {
	Path string `env:"VARIANTS_FILE"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server     *ServerConfig
	CORS       *CORSConfig
	RateLimit  *RateLimitConfig
	Log        *LogConfig
	DeepSeek   *deepseek.Config
	OpenRouter *openrouter.Config
	Transport  *TransportConfig
	HTTP       *openai.Config
	Redis      *ledger.Config
	Presets    *PresetsConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:     &cfg.Server,
		CORS:       &cfg.CORS,
		RateLimit:  &cfg.RateLimit,
		Log:        &cfg.Log,
		DeepSeek:   &cfg.DeepSeek,
		OpenRouter: &cfg.OpenRouter,
		Transport:  &cfg.Transport,
		HTTP:       &cfg.Transport.HTTP,
		Redis:      &cfg.Redis,
		Presets:    &cfg.Presets,
	}
}
