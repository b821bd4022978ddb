package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Policy is a bounded retry policy with exponential backoff. Only errors
// the Retryable predicate accepts are retried; everything else fails
// immediately so the pipeline does not burn its budget on errors that
// will never succeed.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
	OnRetry     func(attempt int, err error)
}

// Do runs op under the policy. The delay doubles after each failed
// attempt (base, 2*base, 4*base, ...) and the sleep is context-aware.
func (p Policy) Do(ctx context.Context, op func() error) error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("retry policy requires positive max attempts")
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxAttempts, lastErr)
}

// isTransient classifies an API error as retryable. Throttling (429) and
// server-side failures (5xx) are transient; client-side rejections (4xx)
// are fatal and never retried. Context cancellation is always fatal.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
