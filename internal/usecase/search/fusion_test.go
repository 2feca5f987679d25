package search

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/recall/internal/domain/search/result"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFuse_RankingExample(t *testing.T) {
	semantic := []result.Semantic{
		{DocID: "doc-high", Score: 0.9},
		{DocID: "doc-low", Score: 0.4},
	}
	keyword := []result.Keyword{
		{DocID: "doc-medium", BM25Score: 0.6},
	}

	got := Fuse(semantic, keyword, 0.7, 0.3)

	wantOrder := []string{"doc-high", "doc-low", "doc-medium"}
	wantScores := []float64{0.63, 0.28, 0.18}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d results, got %d", len(wantOrder), len(got))
	}
	for i := range got {
		if got[i].DocID != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], got[i].DocID)
		}
		if !approx(got[i].CombinedScore, wantScores[i]) {
			t.Errorf("%s: expected score %v, got %v", got[i].DocID, wantScores[i], got[i].CombinedScore)
		}
		if got[i].Rank != i+1 {
			t.Errorf("%s: expected rank %d, got %d", got[i].DocID, i+1, got[i].Rank)
		}
	}
}

func TestFuse_MergesDuplicates(t *testing.T) {
	updated := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	semantic := []result.Semantic{
		{DocID: "a", Score: 0.8, Text: "semantic text", Title: "A"},
		{DocID: "a", Score: 0.1}, // duplicate semantic hit is ignored
	}
	keyword := []result.Keyword{
		{DocID: "a", BM25Score: 0.5, SourceID: "src-1", Permissions: []string{"team"}, UpdatedAt: &updated},
		{DocID: "b", BM25Score: 0.9},
	}

	got := Fuse(semantic, keyword, 0.7, 0.3)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique results, got %d", len(got))
	}

	var a result.Hybrid
	for _, r := range got {
		if r.DocID == "a" {
			a = r
		}
	}
	if !approx(a.SemanticScore, 0.8) || !approx(a.KeywordScore, 0.5) {
		t.Errorf("expected merged scores 0.8/0.5, got %v/%v", a.SemanticScore, a.KeywordScore)
	}
	if !approx(a.CombinedScore, 0.8*0.7+0.5*0.3) {
		t.Errorf("unexpected combined score %v", a.CombinedScore)
	}
	if a.Content != "semantic text" {
		t.Errorf("expected semantic content kept, got %q", a.Content)
	}
	if a.SourceID != "src-1" || a.UpdatedAt == nil || !reflect.DeepEqual(a.Permissions, []string{"team"}) {
		t.Errorf("expected keyword-only fields filled, got %+v", a)
	}
}

func TestFuse_NoDuplicateDocIDs(t *testing.T) {
	semantic := []result.Semantic{{DocID: "x", Score: 0.3}, {DocID: "y", Score: 0.2}, {DocID: "x", Score: 0.9}}
	keyword := []result.Keyword{{DocID: "y", BM25Score: 0.4}, {DocID: "z"}, {DocID: "x", BM25Score: 0.1}}

	seen := map[string]bool{}
	for _, r := range Fuse(semantic, keyword, 0.7, 0.3) {
		if seen[r.DocID] {
			t.Fatalf("duplicate doc_id %s", r.DocID)
		}
		seen[r.DocID] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 unique ids, got %d", len(seen))
	}
}

func TestFuse_Deterministic(t *testing.T) {
	semantic := []result.Semantic{{DocID: "b", Score: 0.5}, {DocID: "a", Score: 0.5}, {DocID: "c", Score: 0.2}}
	keyword := []result.Keyword{{DocID: "d", BM25Score: 0.5}, {DocID: "c", BM25Score: 0.2}}

	first := Fuse(semantic, keyword, 0.5, 0.5)
	for range 20 {
		if again := Fuse(semantic, keyword, 0.5, 0.5); !reflect.DeepEqual(first, again) {
			t.Fatalf("fusion not deterministic:\n%+v\n%+v", first, again)
		}
	}

	// equal scores resolve by doc_id
	if first[0].DocID != "a" || first[1].DocID != "b" {
		t.Errorf("expected tie broken by doc_id, got %s, %s", first[0].DocID, first[1].DocID)
	}
}

func TestFuse_ScoreBounds(t *testing.T) {
	semantic := []result.Semantic{{DocID: "a", Score: 1}, {DocID: "b", Score: 0}}
	keyword := []result.Keyword{{DocID: "a", BM25Score: 1}, {DocID: "c", BM25Score: 0.3}}

	for _, r := range Fuse(semantic, keyword, 0.7, 0.3) {
		if r.CombinedScore < 0 || r.CombinedScore > 1.0+1e-9 {
			t.Errorf("%s: combined score %v out of bounds", r.DocID, r.CombinedScore)
		}
	}
}

func TestFuse_Empty(t *testing.T) {
	got := Fuse(nil, nil, 0.7, 0.3)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFuse_SemanticPermissionsFromMetadata(t *testing.T) {
	semantic := []result.Semantic{
		{DocID: "a", Score: 0.5, Metadata: map[string]string{"permissions": "a@x.com, team "}},
		{DocID: "b", Score: 0.4},
	}

	got := Fuse(semantic, nil, 0.7, 0.3)
	if !reflect.DeepEqual(got[0].Permissions, []string{"a@x.com", "team"}) {
		t.Errorf("unexpected permissions: %v", got[0].Permissions)
	}
	if got[1].Permissions != nil {
		t.Errorf("expected no permissions, got %v", got[1].Permissions)
	}
}

func TestFuse_SemanticOnlyHitKeepsOriginAndHidesInternalKeys(t *testing.T) {
	updated := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	meta := map[string]string{
		result.MetaPermissions: "ops",
		result.MetaSourceID:    "file-9",
		"owner":                "sre",
	}
	semantic := []result.Semantic{{DocID: "a", Score: 0.8, UpdatedAt: &updated, Metadata: meta}}

	got := Fuse(semantic, nil, 0.7, 0.3)
	h := got[0]
	if h.SourceID != "file-9" {
		t.Errorf("expected source id from metadata, got %q", h.SourceID)
	}
	if h.UpdatedAt == nil || !h.UpdatedAt.Equal(updated) {
		t.Errorf("expected updated_at carried, got %v", h.UpdatedAt)
	}
	if !reflect.DeepEqual(h.Metadata, map[string]string{"owner": "sre"}) {
		t.Errorf("expected only public metadata, got %v", h.Metadata)
	}
	if len(meta) != 3 {
		t.Errorf("provider metadata must not be modified, got %v", meta)
	}
}

func TestFuse_SharedHitMetadataMatchesKeywordShape(t *testing.T) {
	semantic := []result.Semantic{{DocID: "a", Score: 0.8, Metadata: map[string]string{
		result.MetaPermissions: "ops", "owner": "sre",
	}}}
	keyword := []result.Keyword{{DocID: "a", BM25Score: 0.5, Permissions: []string{"ops"}, Metadata: map[string]string{"owner": "sre"}}}

	fromBoth := Fuse(semantic, keyword, 0.7, 0.3)[0].Metadata
	fromKeyword := Fuse(nil, keyword, 0.7, 0.3)[0].Metadata
	if !reflect.DeepEqual(fromBoth, fromKeyword) {
		t.Errorf("metadata differs by provider: %v vs %v", fromBoth, fromKeyword)
	}
}

func TestFuse_PreviewTruncated(t *testing.T) {
	long := make([]rune, 500)
	for i := range long {
		long[i] = 'я'
	}
	got := Fuse([]result.Semantic{{DocID: "a", Text: string(long)}}, nil, 1, 0)
	if n := len([]rune(got[0].ContentPreview)); n != previewRunes {
		t.Errorf("expected %d-rune preview, got %d", previewRunes, n)
	}
}
