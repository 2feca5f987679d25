package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/recall/internal/domain"
	dombatch "github.com/kailas-cloud/recall/internal/domain/batch"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// --- Mocks ---

type mockBulkUpserter struct {
	err       error
	callCount int
	docs      []domdoc.Document
}

func (m *mockBulkUpserter) BatchUpsert(_ context.Context, docs []domdoc.Document) error {
	m.callCount++
	m.docs = docs
	return m.err
}

type mockDocDeleter struct {
	failOnID string
	err      error
}

func (m *mockDocDeleter) Delete(_ context.Context, id string) error {
	if id == m.failOnID {
		return m.err
	}
	return nil
}

type mockEmbedder struct {
	mu       sync.Mutex
	failFor  string // fail when the text contains this marker
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     int32
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	m.mu.Lock()
	if n > m.peak {
		m.peak = n
	}
	m.mu.Unlock()

	if m.failFor != "" && strings.Contains(text, m.failFor) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 3}, nil
}

func params(id, content string) domdoc.Params {
	return domdoc.Params{
		ID:          id,
		Title:       "t",
		Content:     content,
		SourceType:  "wiki",
		Permissions: []string{"eng"},
	}
}

// --- Index ---

func TestIndex_AllOK(t *testing.T) {
	up := &mockBulkUpserter{}
	svc := New(up, &mockDocDeleter{}, &mockEmbedder{}, nil)

	results := svc.Index(context.Background(), []domdoc.Params{
		params("a", "alpha"), params("b", "beta"), params("c", "gamma"),
	})

	for i, r := range results {
		if r.Status() != dombatch.StatusOK {
			t.Errorf("results[%d] = %s: %v", i, r.Status(), r.Err())
		}
	}
	if up.callCount != 1 {
		t.Errorf("expected a single pipelined upsert, got %d", up.callCount)
	}
	if len(up.docs) != 3 || len(up.docs[0].Vector()) != 2 {
		t.Errorf("expected 3 vectorized documents, got %d", len(up.docs))
	}
}

func TestIndex_PerItemErrorsArePositional(t *testing.T) {
	up := &mockBulkUpserter{}
	emb := &mockEmbedder{failFor: "poison"}
	svc := New(up, &mockDocDeleter{}, emb, nil)

	invalid := params("bad id!", "x")
	results := svc.Index(context.Background(), []domdoc.Params{
		params("a", "fine"), invalid, params("c", "poison pill"), params("d", "fine too"),
	})

	want := []dombatch.ItemStatus{dombatch.StatusOK, dombatch.StatusError, dombatch.StatusError, dombatch.StatusOK}
	for i, r := range results {
		if r.Status() != want[i] {
			t.Errorf("results[%d] = %s, want %s", i, r.Status(), want[i])
		}
	}
	if !errors.Is(results[1].Err(), domain.ErrInvalidDocument) {
		t.Errorf("expected ErrInvalidDocument, got %v", results[1].Err())
	}
	if !errors.Is(results[2].Err(), domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error, got %v", results[2].Err())
	}
	if results[2].ID() != "c" {
		t.Errorf("unexpected id %q", results[2].ID())
	}
	if len(up.docs) != 2 {
		t.Errorf("expected only valid documents stored, got %d", len(up.docs))
	}
	if emb.calls.Load() != 3 {
		t.Errorf("invalid documents must not be embedded, got %d calls", emb.calls.Load())
	}
}

func TestIndex_UpsertFailureMarksEmbeddedItems(t *testing.T) {
	up := &mockBulkUpserter{err: errors.New("connection reset")}
	svc := New(up, &mockDocDeleter{}, &mockEmbedder{}, nil)

	results := svc.Index(context.Background(), []domdoc.Params{params("a", "x"), params("b", "y")})
	for i, r := range results {
		if r.Status() != dombatch.StatusError {
			t.Errorf("results[%d] = %s, want error", i, r.Status())
		}
	}
}

func TestIndex_NothingValidSkipsUpsert(t *testing.T) {
	up := &mockBulkUpserter{}
	svc := New(up, &mockDocDeleter{}, &mockEmbedder{}, nil)

	svc.Index(context.Background(), []domdoc.Params{{ID: "a"}})
	if up.callCount != 0 {
		t.Errorf("expected no upsert, got %d", up.callCount)
	}
}

func TestIndex_TooLarge(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(&mockBulkUpserter{}, &mockDocDeleter{}, emb, nil).WithMaxBatchSize(2)

	results := svc.Index(context.Background(), []domdoc.Params{params("a", "x"), params("b", "y"), params("c", "z")})
	for i, r := range results {
		if !errors.Is(r.Err(), domain.ErrInvalidDocument) {
			t.Errorf("results[%d]: expected ErrInvalidDocument, got %v", i, r.Err())
		}
	}
	if emb.calls.Load() != 0 {
		t.Error("oversized batch must not be embedded")
	}
}

func TestIndex_ConcurrencyBounded(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(&mockBulkUpserter{}, &mockDocDeleter{}, emb, nil).WithConcurrency(2)

	items := make([]domdoc.Params, 20)
	for i := range items {
		items[i] = params(fmt.Sprintf("d%d", i), "text")
	}
	svc.Index(context.Background(), items)

	if emb.peak > 2 {
		t.Errorf("expected at most 2 concurrent embeddings, saw %d", emb.peak)
	}
	if emb.calls.Load() != 20 {
		t.Errorf("expected 20 embeddings, got %d", emb.calls.Load())
	}
}

// --- Delete ---

func TestDelete(t *testing.T) {
	del := &mockDocDeleter{failOnID: "b", err: domain.ErrDocumentNotFound}
	svc := New(&mockBulkUpserter{}, del, &mockEmbedder{}, nil)

	results := svc.Delete(context.Background(), []string{"a", "b", "c"})
	if results[0].Status() != dombatch.StatusOK || results[2].Status() != dombatch.StatusOK {
		t.Errorf("unexpected results: %+v", results)
	}
	if !errors.Is(results[1].Err(), domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", results[1].Err())
	}
}

func TestDelete_TooLarge(t *testing.T) {
	svc := New(&mockBulkUpserter{}, &mockDocDeleter{}, &mockEmbedder{}, nil).WithMaxBatchSize(1)

	results := svc.Delete(context.Background(), []string{"a", "b"})
	for _, r := range results {
		if r.Status() != dombatch.StatusError {
			t.Errorf("expected error for %s", r.ID())
		}
	}
}
