package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/recall/internal/domain/batch"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
	"github.com/kailas-cloud/recall/internal/domain/search/request"
	"github.com/kailas-cloud/recall/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	searchuc "github.com/kailas-cloud/recall/internal/usecase/search"
)

// Searcher runs hybrid searches.
type Searcher interface {
	SearchWithInfo(ctx context.Context, req request.Request) ([]result.Hybrid, searchuc.Info)
	Stats() searchuc.PerformanceStats
}

// Injector prepares memory injections and drops stale ones.
type Injector interface {
	PrepareInjection(ctx context.Context, userID, conversationID, currentMessage string) dommem.Injection
	InvalidateUser(userID string)
}

// MemoryWriter persists user memories and standing instructions.
type MemoryWriter interface {
	CreateMemory(ctx context.Context, m *dommem.Memory) error
	SoftDeleteMemory(ctx context.Context, userID, id string) error
	CreateInstruction(ctx context.Context, in *dommem.StandingInstruction) error
}

// DocumentIndexer indexes and removes searchable documents.
type DocumentIndexer interface {
	Index(ctx context.Context, p domdoc.Params) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentBatcher indexes and removes documents in batches.
type DocumentBatcher interface {
	Index(ctx context.Context, items []domdoc.Params) []dombatch.Result
	Delete(ctx context.Context, ids []string) []dombatch.Result
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
