package openrouter

// Config contains OpenRouter provider configuration.
type Config struct {
	APIKey  string `env:"OPENROUTER_API_KEY"`
	BaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model   string `env:"OPENROUTER_MODEL"    envDefault:"meta-llama/llama-3.1-8b-instruct"`
}
