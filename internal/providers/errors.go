package providers

import "errors"

// Sentinel error kinds surfaced to callers. Individual providers wrap
// these with the underlying cause; nothing in this package retries.
var (
	ErrEmbeddingService = errors.New("embedding service error")
	ErrLLMService       = errors.New("language model service error")
)
