package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/recall/internal/domain"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// --- Mocks ---

type mockDocRepo struct {
	ensureErr error
	upsertErr error
	deleteErr error
	upserted  *domdoc.Document
	deletedID string
}

func (m *mockDocRepo) EnsureIndex(_ context.Context) error { return m.ensureErr }

func (m *mockDocRepo) Upsert(_ context.Context, doc *domdoc.Document) error {
	m.upserted = doc
	return m.upsertErr
}

func (m *mockDocRepo) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	text   string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.text = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func validParams() domdoc.Params {
	return domdoc.Params{
		ID:          "doc-1",
		Title:       "Deploy runbook",
		Content:     "Drain the node first.",
		SourceType:  "gdrive",
		Permissions: []string{"*"},
	}
}

// --- Tests ---

func TestIndex_Success(t *testing.T) {
	repo := &mockDocRepo{}
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 7}}
	svc := New(repo, emb, nil)

	doc, err := svc.Index(context.Background(), validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Vector()) != 2 {
		t.Errorf("expected vector on returned document, got %v", doc.Vector())
	}
	if repo.upserted == nil || repo.upserted.ID() != "doc-1" {
		t.Fatalf("expected document to be stored, got %+v", repo.upserted)
	}
	if emb.text != "Deploy runbook\n\nDrain the node first." {
		t.Errorf("unexpected embedding text: %q", emb.text)
	}
}

func TestIndex_InvalidDocument(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, &mockEmbedder{}, nil)

	p := validParams()
	p.Permissions = nil
	_, err := svc.Index(context.Background(), p)
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if repo.upserted != nil {
		t.Error("invalid document must not be stored")
	}
}

func TestIndex_EmbedError(t *testing.T) {
	repo := &mockDocRepo{}
	svc := New(repo, &mockEmbedder{err: domain.ErrEmbeddingProviderError}, nil)

	_, err := svc.Index(context.Background(), validParams())
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if repo.upserted != nil {
		t.Error("document must not be stored without a vector")
	}
}

func TestIndex_DimMismatch(t *testing.T) {
	repo := &mockDocRepo{upsertErr: domain.ErrVectorDimMismatch}
	svc := New(repo, &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}, nil)

	_, err := svc.Index(context.Background(), validParams())
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockDocRepo{deleteErr: domain.ErrDocumentNotFound}
	svc := New(repo, &mockEmbedder{}, nil)

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if repo.deletedID != "missing" {
		t.Errorf("expected delete of %q, got %q", "missing", repo.deletedID)
	}
}

func TestEnsureIndex_WrapsError(t *testing.T) {
	svc := New(&mockDocRepo{ensureErr: errors.New("down")}, &mockEmbedder{}, nil)
	if err := svc.EnsureIndex(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
