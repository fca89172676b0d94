package llm

import "errors"

// Error taxonomy shared by all backends. Callers match with errors.Is.
var (
	// ErrEngineUnavailable: the configured backend cannot be reached
	// (connection refused, timeout, exhausted transient retries).
	// Retryable by the user, not by the pipeline.
	ErrEngineUnavailable = errors.New("llm engine unavailable")

	// ErrEngineResponse: the backend responded but rejected the request
	// (auth failure, quota exceeded, unknown model). Never auto-retried.
	ErrEngineResponse = errors.New("llm engine rejected request")
)
