package search

import (
	"context"

	"github.com/kailas-cloud/recall/internal/domain/search/result"
)

// SemanticProvider runs vector similarity search over the document corpus.
// Implementations should honor ctx; the engine abandons calls past its deadline either way.
type SemanticProvider interface {
	Search(ctx context.Context, query string, topK int, sourceFilter string) ([]result.Semantic, error)
}

// KeywordProvider runs full-text (BM25) search over the permission-annotated corpus.
type KeywordProvider interface {
	Search(
		ctx context.Context, query string,
		permissions []string, sourceFilter string, limit int,
	) ([]result.Keyword, error)
}
