package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

var _ application.EventPublisher = (*RetryPublisher)(nil)

// RetryPublisher retries a failed publish with exponential backoff and jitter.
type RetryPublisher struct {
	inner      application.EventPublisher
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryPublisher(inner application.EventPublisher, baseDelay time.Duration, maxRetries int) *RetryPublisher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryPublisher{
		inner:      inner,
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryPublisher) Publish(ctx context.Context, event *application.OutboxEvent) error {
	var lastErr error

	for attempt := range r.maxRetries {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.inner.Publish(ctx, event)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) {
			return err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func (r *RetryPublisher) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(r.baseDelay)))
	return base + jitter
}
