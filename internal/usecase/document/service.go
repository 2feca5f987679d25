package document

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// Service indexes already-parsed documents with automatic vectorization.
type Service struct {
	repo     Repository
	embedder Embedder
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a document service.
func New(repo Repository, embedder Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embedder: embedder, logger: logger, now: time.Now}
}

// EnsureIndex prepares the search backend. Called once at startup.
func (s *Service) EnsureIndex(ctx context.Context) error {
	if err := s.repo.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure document index: %w", err)
	}
	return nil
}

// Index validates, vectorizes and stores a document.
func (s *Service) Index(ctx context.Context, p domdoc.Params) (domdoc.Document, error) {
	doc, err := domdoc.New(p, s.now())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	emb, err := s.embedder.Embed(ctx, doc.EmbeddingText())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("vectorize document: %w", err)
	}

	doc = doc.WithVector(emb.Embedding)
	if err := s.repo.Upsert(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("upsert document: %w", err)
	}

	s.logger.Debug("document indexed",
		zap.String("doc_id", doc.ID()),
		zap.String("source_type", doc.SourceType()),
		zap.Int("tokens", emb.TotalTokens),
	)
	return doc, nil
}

// Delete removes a document from the index.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
