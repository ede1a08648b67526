package openai

// Config contains HTTP transport configuration.
// Fields map to openai-go client options:
//   - MaxRetries: Maps to option.WithMaxRetries()
//   - DialTimeout: Dialer timeout of the tuned http.Transport (in seconds)
//   - ResponseHeaderTimeout: Time to first response byte (in seconds)
//
// There is no overall request timeout; streams stay open as long as the
// provider keeps sending.
type Config struct {
	MaxRetries            int `env:"TRANSPORT_MAX_RETRIES"             envDefault:"2"`
	DialTimeout           int `env:"TRANSPORT_DIAL_TIMEOUT"            envDefault:"10"`
	ResponseHeaderTimeout int `env:"TRANSPORT_RESPONSE_HEADER_TIMEOUT" envDefault:"60"`
}
