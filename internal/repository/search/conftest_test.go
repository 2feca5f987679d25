package search

import (
	"context"

	"github.com/kailas-cloud/recall/internal/db"
	"github.com/kailas-cloud/recall/internal/domain"
)

// mockStore implements both consumer interfaces for tests.
type mockStore struct {
	searchKNNFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func docFields() map[string]string {
	return map[string]string{
		"title":       "Deploy runbook",
		"content":     "Drain the node first.",
		"source_type": "gdrive",
		"source_id":   "file-9",
		"permissions": "eng@example.com,ops",
		"created_at":  "1700000000",
		"updated_at":  "1700000600",
		"metadata":    `{"owner":"ops"}`,
		"vector":      "\x00\x00\x80\x3f",
	}
}

// returned keeps only the fields a query asked for, as FT.SEARCH RETURN does.
func returned(fields map[string]string, want []string) map[string]string {
	out := make(map[string]string, len(want))
	for _, k := range want {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}
