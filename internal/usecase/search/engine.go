package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/recall/internal/domain/search/kind"
	"github.com/kailas-cloud/recall/internal/domain/search/mode"
	"github.com/kailas-cloud/recall/internal/domain/search/request"
	"github.com/kailas-cloud/recall/internal/domain/search/result"
	"github.com/kailas-cloud/recall/internal/metrics"
)

const (
	providerSemantic = "semantic"
	providerKeyword  = "keyword"
)

// Config holds engine tuning. Zero values fall back to defaults, except the weights.
type Config struct {
	SemanticWeight     float64
	KeywordWeight      float64
	Timeout            time.Duration
	RecencyBoostDays   int
	RecencyBoostFactor float64
	DefaultLimit       int
	CandidateMultiple  int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SemanticWeight:     DefaultSemanticWeight,
		KeywordWeight:      DefaultKeywordWeight,
		Timeout:            200 * time.Millisecond,
		RecencyBoostDays:   DefaultRecencyBoostDays,
		RecencyBoostFactor: DefaultRecencyBoostFactor,
		DefaultLimit:       5,
		CandidateMultiple:  3,
	}
}

// Info describes how a search was executed.
type Info struct {
	Kind     kind.Kind // set only in auto mode
	Semantic Outcome
	Keyword  Outcome
	Elapsed  time.Duration
}

// Engine runs semantic and keyword providers in parallel under one deadline
// and fuses what comes back. It never fails: degraded providers yield fewer results.
type Engine struct {
	semantic SemanticProvider
	keyword  KeywordProvider
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
	stats    counters
}

// NewEngine creates a hybrid search engine.
func NewEngine(semantic SemanticProvider, keyword KeywordProvider, cfg Config, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.CandidateMultiple <= 0 {
		cfg.CandidateMultiple = def.CandidateMultiple
	}
	if cfg.RecencyBoostFactor == 0 {
		cfg.RecencyBoostFactor = def.RecencyBoostFactor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		semantic: semantic,
		keyword:  keyword,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Search returns ranked, permission-filtered hybrid results. Never nil.
func (e *Engine) Search(ctx context.Context, req request.Request) []result.Hybrid {
	results, _ := e.SearchWithInfo(ctx, req)
	return results
}

// SearchWithInfo is Search plus execution details (classification and provider outcomes).
func (e *Engine) SearchWithInfo(ctx context.Context, req request.Request) ([]result.Hybrid, Info) {
	start := time.Now()
	info := Info{
		Semantic: Outcome{Status: StatusSkipped},
		Keyword:  Outcome{Status: StatusSkipped},
	}

	m := req.Mode()
	if m == mode.Auto {
		info.Kind = Classify(req.Query())
		metrics.SearchQueryKindTotal.WithLabelValues(string(info.Kind)).Inc()
	}

	limit := req.Limit()
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	topK := limit * e.cfg.CandidateMultiple

	semHits, kwHits := e.fanOut(ctx, req, m, topK, &info)

	fused := Fuse(semHits, kwHits, e.cfg.SemanticWeight, e.cfg.KeywordWeight)

	now := e.now()
	filtered := make([]result.Hybrid, 0, len(fused))
	for i := range fused {
		h := fused[i]
		if req.RecencyBoost() {
			h.CombinedScore = ApplyRecencyBoost(
				h.CombinedScore, h.CreatedAt, now, e.cfg.RecencyBoostDays, e.cfg.RecencyBoostFactor,
			)
		}
		if !h.Allows(req.Permissions()) {
			continue
		}
		if sf := req.SourceFilter(); sf != "" && h.SourceType != sf {
			continue
		}
		filtered = append(filtered, h)
	}

	sortAndRank(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	info.Elapsed = time.Since(start)
	e.stats.record(info.Elapsed.Microseconds(), info.Semantic, info.Keyword)
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(info.Elapsed.Seconds())

	e.logger.Debug("hybrid search",
		zap.String("mode", string(m)),
		zap.String("kind", string(info.Kind)),
		zap.String("semantic", string(info.Semantic.Status)),
		zap.String("keyword", string(info.Keyword.Status)),
		zap.Int("fused", len(fused)),
		zap.Int("returned", len(filtered)),
		zap.Duration("elapsed", info.Elapsed),
	)

	return filtered, info
}

// Stats returns a snapshot of the rolling performance counters.
func (e *Engine) Stats() PerformanceStats {
	return e.stats.snapshot()
}

// fanOut queries the providers the mode calls for, concurrently, bounded by one shared timeout.
func (e *Engine) fanOut(
	ctx context.Context, req request.Request, m mode.Mode, topK int, info *Info,
) ([]result.Semantic, []result.Keyword) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var (
		g       errgroup.Group
		semHits []result.Semantic
		kwHits  []result.Keyword
	)

	if m.UsesSemantic() && e.semantic != nil {
		g.Go(func() error {
			semHits, info.Semantic = invoke(ctx, func(ctx context.Context) ([]result.Semantic, error) {
				return e.semantic.Search(ctx, req.Query(), topK, req.SourceFilter())
			})
			return nil
		})
	}

	if m.UsesKeyword() && e.keyword != nil {
		g.Go(func() error {
			kwHits, info.Keyword = invoke(ctx, func(ctx context.Context) ([]result.Keyword, error) {
				return e.keyword.Search(ctx, req.Query(), req.Permissions(), req.SourceFilter(), topK)
			})
			return nil
		})
	}

	_ = g.Wait() // goroutines never return errors; failures live in Outcome

	e.observe(providerSemantic, info.Semantic)
	e.observe(providerKeyword, info.Keyword)

	return semHits, kwHits
}

func (e *Engine) observe(provider string, o Outcome) {
	metrics.SearchProviderTotal.WithLabelValues(provider, string(o.Status)).Inc()
	switch o.Status {
	case StatusTimeout:
		e.logger.Warn("search provider timed out",
			zap.String("provider", provider),
			zap.Duration("elapsed", o.Elapsed),
			zap.Duration("timeout", e.cfg.Timeout),
		)
	case StatusError:
		e.logger.Warn("search provider failed",
			zap.String("provider", provider),
			zap.Duration("elapsed", o.Elapsed),
			zap.Error(o.Err),
		)
	case StatusOK, StatusSkipped:
	}
}
