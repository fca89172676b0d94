package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type flakyGenerator struct {
	errs  []error
	out   string
	calls int
}

func (g *flakyGenerator) Generate(context.Context, string, string, Options) (string, error) {
	g.calls++
	if g.calls <= len(g.errs) {
		return "", g.errs[g.calls-1]
	}
	return g.out, nil
}

func (g *flakyGenerator) SelfTest(context.Context) (bool, string) { return true, "flaky" }

func TestRetrierRecoversFromTransientFailure(t *testing.T) {
	gen := &flakyGenerator{
		errs: []error{fmt.Errorf("%w: connection refused", ErrEngineUnavailable)},
		out:  "ok",
	}
	r := NewRetrier(gen, 2, time.Millisecond)

	out, err := r.Generate(context.Background(), "sys", "user", Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "ok" || gen.calls != 2 {
		t.Errorf("out=%q calls=%d, want ok after one retry", out, gen.calls)
	}
}

func TestRetrierSurfacesAfterAttemptsExhausted(t *testing.T) {
	unavailable := fmt.Errorf("%w: still down", ErrEngineUnavailable)
	gen := &flakyGenerator{errs: []error{unavailable, unavailable, unavailable}}
	r := NewRetrier(gen, 2, time.Millisecond)

	_, err := r.Generate(context.Background(), "sys", "user", Options{})
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("want ErrEngineUnavailable, got %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("calls = %d, want the configured bound of 2", gen.calls)
	}
}

func TestRetrierDoesNotRetryResponseErrors(t *testing.T) {
	gen := &flakyGenerator{errs: []error{fmt.Errorf("%w: bad api key", ErrEngineResponse)}}
	r := NewRetrier(gen, 3, time.Millisecond)

	_, err := r.Generate(context.Background(), "sys", "user", Options{})
	if !errors.Is(err, ErrEngineResponse) {
		t.Fatalf("want ErrEngineResponse, got %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("response errors must not be retried, got %d calls", gen.calls)
	}
}

func TestRetrierStopsOnCancelledContext(t *testing.T) {
	unavailable := fmt.Errorf("%w: down", ErrEngineUnavailable)
	gen := &flakyGenerator{errs: []error{unavailable, unavailable}}
	r := NewRetrier(gen, 2, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := r.Generate(ctx, "sys", "user", Options{})
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("want the last engine error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled context must short-circuit the backoff wait")
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}
