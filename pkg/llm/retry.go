package llm

import (
	"context"
	"errors"
	"time"
)

// Retrier decorates a TextGenerator with a small fixed retry bound for
// transient failures. Backends classify transient trouble (timeouts, rate
// limits, 5xx) as ErrEngineUnavailable; everything else surfaces immediately.
type Retrier struct {
	next     TextGenerator
	attempts int
	backoff  time.Duration
}

func NewRetrier(next TextGenerator, attempts int, backoff time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{next: next, attempts: attempts, backoff: backoff}
}

func (r *Retrier) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		out, err := r.next.Generate(ctx, systemPrompt, userPrompt, opts)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrEngineUnavailable) {
			return "", err
		}
		lastErr = err
		if i+1 < r.attempts {
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return "", lastErr
			}
		}
	}
	return "", lastErr
}

// SelfTest is a one-shot diagnostic; retrying it would only mask flakiness.
func (r *Retrier) SelfTest(ctx context.Context) (bool, string) {
	return r.next.SelfTest(ctx)
}
