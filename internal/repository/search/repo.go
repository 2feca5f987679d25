package search

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/recall/internal/db"
	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/search/result"
	"github.com/kailas-cloud/recall/internal/repository/document"
)

// DefaultBM25Scale maps raw BM25 into [0,1] via tanh(raw/scale).
const DefaultBM25Scale = 10.0

const previewRunes = 200

// knnStore is the consumer interface for vector search (ISP).
type knnStore interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// textStore is the consumer interface for full-text search (ISP).
type textStore interface {
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// SemanticProvider embeds the query and runs KNN over the document index.
type SemanticProvider struct {
	store    knnStore
	embedder domain.Embedder
}

// NewSemanticProvider creates the vector-search provider.
func NewSemanticProvider(s knnStore, embedder domain.Embedder) *SemanticProvider {
	return &SemanticProvider{store: s, embedder: embedder}
}

// Search returns up to topK documents by cosine similarity. Permissions travel in
// Metadata["permissions"] as a comma-separated list; they are not filtered here.
func (p *SemanticProvider) Search(
	ctx context.Context, query string, topK int, sourceFilter string,
) ([]result.Semantic, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}

	emb, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:    domain.DocumentIndex,
		VectorField:  document.FieldVector,
		Vector:       emb.Embedding,
		K:            topK,
		ReturnFields: document.ReturnFields,
	}
	if sourceFilter != "" {
		q.Filters = []db.TagFilter{{Field: document.FieldSourceType, Values: []string{sourceFilter}}}
	}

	sr, err := p.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]result.Semantic, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.Semantic{
			DocID:     document.IDFromKey(e.Key),
			Score:     e.Score,
			Text:      e.Fields[document.FieldContent],
			Title:     e.Fields[document.FieldTitle],
			Source:    e.Fields[document.FieldSourceType],
			Metadata:  semanticMetadata(e.Fields),
			CreatedAt: parseUnix(e.Fields[document.FieldCreatedAt]),
			UpdatedAt: parseUnix(e.Fields[document.FieldUpdatedAt]),
		})
	}
	return hits, nil
}

// KeywordProvider runs BM25 over title and content, pre-filtered by permissions.
type KeywordProvider struct {
	store textStore
	scale float64
}

// NewKeywordProvider creates the full-text provider. A non-positive scale uses DefaultBM25Scale.
func NewKeywordProvider(s textStore, scale float64) *KeywordProvider {
	if scale <= 0 {
		scale = DefaultBM25Scale
	}
	return &KeywordProvider{store: s, scale: scale}
}

// Search returns up to limit documents visible to permissions (or open to everyone).
// BM25Score is normalized into [0,1].
func (p *KeywordProvider) Search(
	ctx context.Context, query string, permissions []string, sourceFilter string, limit int,
) ([]result.Keyword, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}

	allowed := make([]string, 0, len(permissions)+1)
	for _, perm := range permissions {
		if perm != "" && perm != result.WildcardPermission {
			allowed = append(allowed, perm)
		}
	}
	allowed = append(allowed, result.WildcardPermission)

	filters := []db.TagFilter{{Field: document.FieldPermissions, Values: allowed}}
	if sourceFilter != "" {
		filters = append(filters, db.TagFilter{Field: document.FieldSourceType, Values: []string{sourceFilter}})
	}

	sr, err := p.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    domain.DocumentIndex,
		Query:        query,
		TextFields:   document.TextFields,
		Filters:      filters,
		TopK:         limit,
		ReturnFields: document.ReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]result.Keyword, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		content := e.Fields[document.FieldContent]
		hits = append(hits, result.Keyword{
			DocID:          document.IDFromKey(e.Key),
			Title:          e.Fields[document.FieldTitle],
			Content:        content,
			SourceType:     e.Fields[document.FieldSourceType],
			SourceID:       e.Fields[document.FieldSourceID],
			CreatedAt:      parseUnix(e.Fields[document.FieldCreatedAt]),
			UpdatedAt:      parseUnix(e.Fields[document.FieldUpdatedAt]),
			Permissions:    splitPermissions(e.Fields[document.FieldPermissions]),
			Metadata:       extraMetadata(e.Fields),
			BM25Score:      p.normalize(e.Score),
			ContentPreview: preview(content),
		})
	}
	return hits, nil
}

func (p *KeywordProvider) normalize(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return math.Tanh(raw / p.scale)
}

// semanticMetadata carries permissions and source id next to free-form metadata,
// under result.MetaPermissions and result.MetaSourceID.
func semanticMetadata(fields map[string]string) map[string]string {
	m := extraMetadata(fields)
	if m == nil {
		m = make(map[string]string, 2)
	}
	m[result.MetaPermissions] = fields[document.FieldPermissions]
	if id := fields[document.FieldSourceID]; id != "" {
		m[result.MetaSourceID] = id
	}
	return m
}

// extraMetadata decodes the document's free-form metadata. A malformed value is dropped
// rather than failing the whole search.
func extraMetadata(fields map[string]string) map[string]string {
	meta, err := document.DecodeMetadata(fields[document.FieldMetadata])
	if err != nil {
		return nil
	}
	return meta
}

func splitPermissions(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, document.PermissionSeparator)
	perms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

func parseUnix(s string) *time.Time {
	if s == "" {
		return nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}
