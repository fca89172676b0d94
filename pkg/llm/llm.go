package llm

import "context"

// Options carries the per-call sampling knobs forwarded to the backend.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// TextGenerator is a minimal abstraction for text-generation backends used by
// the domain. Exactly one implementation is active per process lifetime; it
// intentionally hides concrete providers to preserve dependency direction.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)

	// SelfTest attempts a minimal generation call and reports reachability
	// plus backend identity. Meant for pre-flight diagnostics only, never
	// for the main pipeline.
	SelfTest(ctx context.Context) (bool, string)
}
