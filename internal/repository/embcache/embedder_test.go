package embcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/db"
	"github.com/kailas-cloud/recall/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var (
		setKey string
		setTTL time.Duration
	)
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "deploy guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, cacheKeyPrefix) {
		t.Errorf("expected cache key under %q, got %q", cacheKeyPrefix, setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "deploy guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner embedder should not be called on hit, got %d calls", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), "deploy guide"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_StoreErrorsAreNotFatal(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection refused")
	}

	result, err := ce.Embed(context.Background(), "deploy guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 1 {
		t.Errorf("expected inner result, got %v", result.Embedding)
	}
}

func TestEmbed_CorruptCacheFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	result, err := ce.Embed(context.Background(), "deploy guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 || result.Embedding[0] != 0.7 {
		t.Errorf("expected inner embedder result, got %v after %d calls", result.Embedding, inner.calls)
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, testNamespace, 0, counter, zap.NewNop())

	if ce.ttl != DefaultTTL {
		t.Errorf("expected default ttl, got %v", ce.ttl)
	}

	_, _ = ce.Embed(context.Background(), "a")
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.1}), nil
	}
	_, _ = ce.Embed(context.Background(), "a")

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("expected 1 hit, got %f", v)
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{})
	if ce.cacheKey("x") != ce.cacheKey("x") {
		t.Error("cache key must be deterministic")
	}
	if ce.cacheKey("x") == ce.cacheKey("y") {
		t.Error("different texts must map to different keys")
	}
}

func TestHealthCheck_Forwards(t *testing.T) {
	inner := &mockEmbedder{healthErr: errors.New("down")}
	ce, _ := newTestCachedEmbedder(t, inner)
	if err := ce.HealthCheck(context.Background()); err == nil {
		t.Error("expected forwarded health error")
	}
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for length not multiple of 4")
	}
}

func TestCacheKey_ScopedByNamespace(t *testing.T) {
	ms := &mockKVStore{}
	small := New(&mockEmbedder{}, ms, testNamespace, time.Hour, nil, nil)
	large := New(&mockEmbedder{}, ms, Namespace{Provider: "openai", Model: "text-embedding-3-large", Dimensions: 3}, time.Hour, nil, nil)

	if small.cacheKey("x") == large.cacheKey("x") {
		t.Error("different models must not share cache keys")
	}
	if !strings.Contains(small.cacheKey("x"), "openai/text-embedding-3-small/3:") {
		t.Errorf("expected namespace in key, got %q", small.cacheKey("x"))
	}
}

// blockingEmbedder holds every call until release is closed.
type blockingEmbedder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	<-b.release
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 7}, nil
}

func TestEmbed_ConcurrentMissesShareOneCall(t *testing.T) {
	inner := &blockingEmbedder{started: make(chan struct{}), release: make(chan struct{})}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_shared_total"}, []string{"result"})
	ce := New(inner, &mockKVStore{}, testNamespace, time.Hour, counter, zap.NewNop())

	const callers = 5
	var (
		wg     sync.WaitGroup
		tokens atomic.Int32
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := ce.Embed(context.Background(), "same query")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		tokens.Add(int32(res.TotalTokens))
	}()
	<-inner.started

	for range callers - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ce.Embed(context.Background(), "same query")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if len(res.Embedding) != 2 {
				t.Errorf("expected shared vector, got %v", res.Embedding)
			}
			tokens.Add(int32(res.TotalTokens))
		}()
	}

	// Followers join while the leader is still blocked in the provider.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("expected 1 provider call, got %d", n)
	}
	if n := tokens.Load(); n != 7 {
		t.Errorf("expected tokens charged once (7), got %d", n)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %f", v)
	}
}
