package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrCancelled marks a run that stopped because its caller cancelled it.
// It is never reported as a ProviderError.
var ErrCancelled = errors.New("run cancelled")

// ConfigError reports a missing provider setting detected before any network call.
type ConfigError struct {
	Provider ProviderName
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is empty for provider %s", e.Field, e.Provider)
}

// ProviderError reports a non-success transport response or an empty body.
type ProviderError struct {
	HTTPStatus int
	Body       string
}

func (e *ProviderError) Error() string {
	body := e.Body
	if strings.TrimSpace(body) == "" {
		body = "Request failed"
	}
	if e.HTTPStatus == 0 {
		return "provider error: " + body
	}
	return fmt.Sprintf("HTTP %d: %s", e.HTTPStatus, body)
}

// cancelled wraps the context cause so both ErrCancelled and the cause match errors.Is.
func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// IsCancelled reports whether err is a cancellation signal.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// AsProviderError extracts a ProviderError from err.
func AsProviderError(err error) (*ProviderError, bool) {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr, true
	}
	return nil, false
}

// ErrorClass is a display classification for a failed run.
type ErrorClass string

const (
	ErrorClassNone         ErrorClass = ""
	ErrorClassCancelled    ErrorClass = "cancelled"
	ErrorClassConfig       ErrorClass = "config"
	ErrorClassUnauthorized ErrorClass = "unauthorized"
	ErrorClassTimeout      ErrorClass = "timeout"
	ErrorClassNetwork      ErrorClass = "network"
	ErrorClassProvider     ErrorClass = "provider"
	ErrorClassUnknown      ErrorClass = "unknown"
)

// ClassifyError derives a display class from an error's type, status and message.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassNone
	}

	message := strings.ToLower(err.Error())

	if provErr, ok := AsProviderError(err); ok && provErr.HTTPStatus == 401 {
		return ErrorClassUnauthorized
	}
	if strings.Contains(message, "401") {
		return ErrorClassUnauthorized
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(message, "timeout") {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}

	if IsCancelled(err) {
		return ErrorClassCancelled
	}

	if IsConfigError(err) {
		return ErrorClassConfig
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) ||
		strings.Contains(message, "no such host") ||
		strings.Contains(message, "unable to resolve host") {
		return ErrorClassNetwork
	}

	if _, ok := AsProviderError(err); ok {
		return ErrorClassProvider
	}

	return ErrorClassUnknown
}

// DescribeError renders an inline, per-slot error text.
func DescribeError(err error) string {
	switch ClassifyError(err) {
	case ErrorClassNone:
		return ""
	case ErrorClassUnauthorized:
		return "Unauthorized (401). Check the API key."
	case ErrorClassTimeout:
		return "Timeout. Try again later."
	case ErrorClassNetwork:
		return "No network or DNS error."
	case ErrorClassCancelled:
		return "Stopped."
	default:
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			return msg
		}
		return "Unknown error"
	}
}
