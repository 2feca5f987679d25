package document

import (
	"context"

	"github.com/kailas-cloud/recall/internal/domain"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, doc *domdoc.Document) error
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
