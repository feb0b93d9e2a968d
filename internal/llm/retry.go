package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryProvider retries transient upstream failures with capped
// exponential backoff and ±20% jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *zap.Logger
}

// RetryOption customizes a RetryProvider.
type RetryOption func(*RetryProvider)

// RetryLogger logs each scheduled retry at debug level.
func RetryLogger(l *zap.Logger) RetryOption {
	return func(r *RetryProvider) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig, opts ...RetryOption) Provider {
	r := &RetryProvider{inner: p, config: cfg, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	retriedInvalid := false

	var lastErr error
	for attempt := range attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry, reason := classifyRetry(err)
		if reason == "invalid_response" {
			// A malformed answer is worth exactly one more try.
			retry = !retriedInvalid
			retriedInvalid = true
		}
		if !retry || attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.logger.Debug("retrying llm request",
			zap.Int("attempt", attempt+1),
			zap.String("reason", reason),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// classifyRetry reports whether err is transient and names its kind.
func classifyRetry(err error) (bool, string) {
	var (
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
		rl      *ErrRateLimit
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false, "context"
	case errors.As(err, &maxTok):
		return false, "max_tokens"
	case isClientError(err):
		return false, "client_error"
	case errors.As(err, &invalid):
		return true, "invalid_response"
	case errors.As(err, &rl):
		return true, "rate_limit"
	default:
		// Unavailable providers and network failures.
		return true, "unavailable"
	}
}

// backoff returns the wait before the retry that follows attempt. A rate
// limit with a Retry-After hint is honored as is.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
