package domain

import "errors"

// Sentinel errors shared between layers.
var (
	// ErrInvalidQuery signals a missing, empty, or too-short query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidTopK signals a top_k outside [1, 10].
	ErrInvalidTopK = errors.New("invalid top_k")
	// ErrRetrievalFailure signals an embedding or chunk store failure during a search.
	ErrRetrievalFailure = errors.New("retrieval failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
