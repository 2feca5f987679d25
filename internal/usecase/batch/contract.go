package batch

import (
	"context"

	"github.com/kailas-cloud/recall/internal/domain"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// BulkUpserter writes vectorized documents in one round-trip.
type BulkUpserter interface {
	BatchUpsert(ctx context.Context, docs []domdoc.Document) error
}

// DocumentDeleter deletes a document from the index.
type DocumentDeleter interface {
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
