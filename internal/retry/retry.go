// Package retry wraps remote calls with classified-error retry and
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/troupehq/troupe/internal/provider"
)

// jitterFraction is the maximum random fraction added to each delay.
const jitterFraction = 0.3

// Policy controls retry behavior for one call site.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay unit: attempt n waits BaseDelay * 2^(n-1).
	BaseDelay time.Duration
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
}

// withDefaults fills zero fields with sane values.
func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	return p
}

// committedError marks an error that occurred after a stream had
// already begun emitting chunks. A partially-consumed stream cannot be
// safely retried without risking duplicate partial output, so the
// policy surfaces it unretried.
type committedError struct {
	err error
}

func (e *committedError) Error() string {
	return fmt.Sprintf("stream committed: %v", e.err)
}

func (e *committedError) Unwrap() error { return e.err }

// Committed wraps err to mark the stream as already consumed past its
// first chunk. Returns nil if err is nil.
func Committed(err error) error {
	if err == nil {
		return nil
	}
	return &committedError{err: err}
}

// IsCommitted reports whether err is marked as a post-first-chunk
// stream failure.
func IsCommitted(err error) bool {
	var ce *committedError
	return errors.As(err, &ce)
}

// Do runs op up to p.MaxAttempts times, backing off between attempts.
// Only errors classified as retryable or unknown are retried; committed
// stream errors and non-retryable errors surface immediately. The name
// is used for logging only.
func Do[T any](ctx context.Context, name string, p Policy, op func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsCommitted(err) {
			log.Printf("[retry] %s: stream already committed, not retrying: %v", name, err)
			return zero, err
		}

		class := provider.Classify(err)
		if class == provider.ClassNonRetryable {
			log.Printf("[retry] %s: non-retryable error on attempt %d: %v", name, attempt, err)
			return zero, err
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := backoff(p, attempt)
		log.Printf("[retry] %s: attempt %d failed (%s), retrying in %v: %v",
			name, attempt, class, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("%s: %d attempts exhausted: %w", name, p.MaxAttempts, lastErr)
}

// backoff computes the delay before the next attempt: exponential in
// the attempt number plus up to 30% random jitter, capped at MaxDelay.
func backoff(p Policy, attempt int) time.Duration {
	delay := p.BaseDelay << (attempt - 1)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(float64(delay)*jitterFraction) + 1))
	delay += jitter
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
