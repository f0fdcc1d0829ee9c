package sources

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy decides which fetch failures are transient and how long to wait
// between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles after every attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff delay. Zero means no cap.
	MaxDelay time.Duration

	// RetryableStatus is the set of HTTP status codes worth retrying.
	RetryableStatus map[int]struct{}
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		RetryableStatus: map[int]struct{}{
			http.StatusTooManyRequests:     {},
			http.StatusInternalServerError: {},
			http.StatusBadGateway:          {},
			http.StatusServiceUnavailable:  {},
			http.StatusGatewayTimeout:      {},
		},
	}
}

// IsRetryable reports whether err is a transient failure: a retryable HTTP
// status or a network timeout.
func (p RetryPolicy) IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		_, ok := p.RetryableStatus[statusErr.Code]
		return ok
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) (int, error) {
	attempts := 0
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !p.IsRetryable(err) {
			return err
		}
		if onRetry != nil && attempts < p.MaxAttempts {
			onRetry(attempts, err)
		}
		return retry.RetryableError(err)
	})
	return attempts, err
}
