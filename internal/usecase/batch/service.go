package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/recall/internal/domain"
	dombatch "github.com/kailas-cloud/recall/internal/domain/batch"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

const (
	// MaxBatchSize is the maximum number of items per batch request.
	MaxBatchSize = 100
	// DefaultConcurrency bounds parallel embedding calls within one batch.
	DefaultConcurrency = 4
)

// Service ingests and removes documents in batches with per-item error reporting.
type Service struct {
	docs         BulkUpserter
	del          DocumentDeleter
	embed        Embedder
	maxBatchSize int
	concurrency  int
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a batch service.
func New(docs BulkUpserter, del DocumentDeleter, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docs:         docs,
		del:          del,
		embed:        embed,
		maxBatchSize: MaxBatchSize,
		concurrency:  DefaultConcurrency,
		logger:       logger,
		now:          time.Now,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithConcurrency configures how many embeddings run at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Index validates and vectorizes every item, then stores the valid ones in a single pipeline.
// Results are positional: results[i] describes items[i].
func (s *Service) Index(ctx context.Context, items []domdoc.Params) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.maxBatchSize {
		for i := range items {
			results[i] = dombatch.NewError(
				items[i].ID,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument),
			)
		}
		return results
	}

	now := s.now()
	docs := make([]domdoc.Document, len(items))
	embedded := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range items {
		doc, err := domdoc.New(items[i], now)
		if err != nil {
			results[i] = dombatch.NewError(items[i].ID, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err))
			continue
		}
		g.Go(func() error {
			emb, err := s.embed.Embed(ctx, doc.EmbeddingText())
			if err != nil {
				results[i] = dombatch.NewError(doc.ID(), fmt.Errorf("vectorize: %w", err))
				return nil
			}
			docs[i] = doc.WithVector(emb.Embedding)
			embedded[i] = true
			return nil
		})
	}
	_ = g.Wait() // per-item failures live in results

	valid := make([]domdoc.Document, 0, len(items))
	validIdx := make([]int, 0, len(items))
	for i := range docs {
		if embedded[i] {
			valid = append(valid, docs[i])
			validIdx = append(validIdx, i)
		}
	}

	if len(valid) > 0 {
		if err := s.docs.BatchUpsert(ctx, valid); err != nil {
			for _, i := range validIdx {
				results[i] = dombatch.NewError(items[i].ID, fmt.Errorf("batch upsert: %w", err))
			}
		} else {
			for _, i := range validIdx {
				results[i] = dombatch.NewOK(items[i].ID)
			}
		}
	}

	ok, failed := dombatch.Count(results)
	s.logger.Info("document batch indexed", zap.Int("ok", ok), zap.Int("failed", failed))
	return results
}

// Delete removes documents by ID in batch.
func (s *Service) Delete(ctx context.Context, ids []string) []dombatch.Result {
	results := make([]dombatch.Result, len(ids))

	if len(ids) > s.maxBatchSize {
		for i, id := range ids {
			results[i] = dombatch.NewError(id,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument))
		}
		return results
	}

	for i, id := range ids {
		if err := s.del.Delete(ctx, id); err != nil {
			results[i] = dombatch.NewError(id, fmt.Errorf("delete: %w", err))
			continue
		}
		results[i] = dombatch.NewOK(id)
	}

	return results
}
