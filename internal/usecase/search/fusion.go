package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/recall/internal/domain/search/result"
)

// Default fusion weights.
const (
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// previewRunes is the content preview length for results that arrive without one.
const previewRunes = 200

// Fuse merges semantic and keyword hits into one list with a single entry per DocID.
// combined = semantic*semanticWeight + keyword*keywordWeight.
// A semantic DocID seen twice keeps its first hit. A keyword hit for a known DocID sets its
// keyword score on the existing entry and fills fields only the keyword side carries.
// Output is sorted by combined score desc, ties by DocID asc, and ranked from 1.
func Fuse(
	semantic []result.Semantic, keyword []result.Keyword,
	semanticWeight, keywordWeight float64,
) []result.Hybrid {
	merged := make(map[string]*result.Hybrid, len(semantic)+len(keyword))
	order := make([]string, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		if _, ok := merged[r.DocID]; ok {
			continue
		}
		merged[r.DocID] = fromSemantic(r)
		order = append(order, r.DocID)
	}

	for _, r := range keyword {
		if existing, ok := merged[r.DocID]; ok {
			mergeKeyword(existing, r)
			continue
		}
		merged[r.DocID] = fromKeyword(r)
		order = append(order, r.DocID)
	}

	results := make([]result.Hybrid, 0, len(merged))
	for _, id := range order {
		h := merged[id]
		h.CombinedScore = h.SemanticScore*semanticWeight + h.KeywordScore*keywordWeight
		results = append(results, *h)
	}

	sortAndRank(results)
	return results
}

// sortAndRank orders by combined score desc with DocID as tie-break and assigns 1-based ranks.
func sortAndRank(results []result.Hybrid) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].DocID < results[j].DocID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func fromSemantic(r result.Semantic) *result.Hybrid {
	return &result.Hybrid{
		DocID:          r.DocID,
		Title:          r.Title,
		Content:        r.Text,
		SourceType:     r.Source,
		SourceID:       r.Metadata[result.MetaSourceID],
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Permissions:    parsePermissions(r.Metadata[result.MetaPermissions]),
		Metadata:       publicMetadata(r.Metadata),
		SemanticScore:  r.Score,
		ContentPreview: preview(r.Text),
	}
}

func fromKeyword(r result.Keyword) *result.Hybrid {
	p := r.ContentPreview
	if p == "" {
		p = preview(r.Content)
	}
	return &result.Hybrid{
		DocID:          r.DocID,
		Title:          r.Title,
		Content:        r.Content,
		SourceType:     r.SourceType,
		SourceID:       r.SourceID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Permissions:    r.Permissions,
		Metadata:       r.Metadata,
		KeywordScore:   r.BM25Score,
		ContentPreview: p,
	}
}

func mergeKeyword(h *result.Hybrid, r result.Keyword) {
	h.KeywordScore = r.BM25Score
	if len(h.Permissions) == 0 {
		h.Permissions = r.Permissions
	}
	if h.SourceID == "" {
		h.SourceID = r.SourceID
	}
	if h.SourceType == "" {
		h.SourceType = r.SourceType
	}
	if h.UpdatedAt == nil {
		h.UpdatedAt = r.UpdatedAt
	}
	if h.CreatedAt == nil {
		h.CreatedAt = r.CreatedAt
	}
	if h.Title == "" {
		h.Title = r.Title
	}
	if len(h.Metadata) == 0 {
		h.Metadata = r.Metadata
	}
}

// publicMetadata drops the keys fusion lifted into dedicated fields. The input is not modified.
func publicMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if k == result.MetaPermissions || k == result.MetaSourceID {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePermissions(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	perms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}
