package document

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/recall/internal/db"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	delFn         func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

const testDims = 4

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testDims, 16, 200), ms
}

func makeDoc(t *testing.T, vec []float32) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(domdoc.Params{
		ID:          "doc-1",
		Title:       "Deploy runbook",
		Content:     "Drain the node first.",
		SourceType:  "gdrive",
		SourceID:    "file-9",
		Permissions: []string{"eng@example.com", "ops"},
		Metadata:    map[string]string{"owner": "ops"},
		CreatedAt:   time.Unix(1_700_000_000, 0),
		UpdatedAt:   time.Unix(1_700_000_600, 0),
	}, time.Now())
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	return doc.WithVector(vec)
}
