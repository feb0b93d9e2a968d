package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that is not JSON
// or does not conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable or
// rejected the request. StatusCode is the upstream HTTP status when one
// was received, 0 otherwise.
type ErrProviderUnavailable struct {
	StatusCode int
	Err        error
}

func (e *ErrProviderUnavailable) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("LLM provider unavailable (status %d): %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	default:
		return "LLM provider unavailable"
	}
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// StatusOf returns the HTTP status that best describes err, as seen by a
// caller of the generation endpoint. Unknown errors map to 502.
func StatusOf(err error) int {
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.StatusCode >= 400 {
		return unavail.StatusCode
	}
	return http.StatusBadGateway
}

// statusError builds the provider error for an upstream HTTP status.
func statusError(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{StatusCode: status, Err: err}
}

// isClientError reports whether the upstream rejected the request itself,
// in which case retrying cannot help.
func isClientError(err error) bool {
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		return false
	}
	return unavail.StatusCode >= 400 && unavail.StatusCode < 500 &&
		unavail.StatusCode != http.StatusRequestTimeout
}
