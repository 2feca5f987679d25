package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrMemoryNotFound signals a missing or soft-deleted memory.
	ErrMemoryNotFound = errors.New("memory not found")
	// ErrInvalidMemory signals a memory that fails validation.
	ErrInvalidMemory = errors.New("invalid memory")
	// ErrInvalidInstruction signals a standing instruction that fails validation.
	ErrInvalidInstruction = errors.New("invalid instruction")
	// ErrDocumentNotFound signals a document missing from the index.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorDimMismatch signals an embedding whose size differs from the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidDocument signals a document that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
)
