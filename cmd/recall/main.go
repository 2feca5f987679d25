package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/config"
	dbRedis "github.com/kailas-cloud/recall/internal/db/redis"
	"github.com/kailas-cloud/recall/internal/domain"
	logpkg "github.com/kailas-cloud/recall/internal/logger"
	"github.com/kailas-cloud/recall/internal/metrics"
	documentrepo "github.com/kailas-cloud/recall/internal/repository/document"
	"github.com/kailas-cloud/recall/internal/repository/embcache"
	memoryrepo "github.com/kailas-cloud/recall/internal/repository/memory"
	searchrepo "github.com/kailas-cloud/recall/internal/repository/search"
	chiTransport "github.com/kailas-cloud/recall/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/recall/internal/transport/openai"
	batchuc "github.com/kailas-cloud/recall/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/recall/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/recall/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	injectionuc "github.com/kailas-cloud/recall/internal/usecase/injection"
	searchuc "github.com/kailas-cloud/recall/internal/usecase/search"
	"github.com/kailas-cloud/recall/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting recall API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("memory_store", cfg.MemoryStore.Path),
	)

	// Tuning problems are reported, not fatal: the engine runs with the given values.
	for _, issue := range cfg.Issues() {
		logger.Warn("Configuration issue", zap.String("issue", issue))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	// Search backend
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:        cfg.Database.Addrs,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		DB:           cfg.Database.DB,
		WriteTimeout: time.Duration(cfg.Database.WriteTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	supported, err := store.SupportsSearch(ctx)
	if err != nil {
		logger.Fatal("Failed to probe search capabilities", zap.Error(err))
	}
	if !supported {
		logger.Fatal("Search backend lacks the query engine", zap.Error(domain.ErrKeywordSearchNotSupported))
	}
	logger.Info("Connected to database")

	// Memory store
	memStore, err := memoryrepo.Open(ctx, cfg.MemoryStore.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open memory store", zap.Error(err))
	}
	defer func() { _ = memStore.Close() }()

	// Embedder chain: composition root
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	docEmbedder := buildEmbedder(base, cfg.Embedding, "", nil, logger)
	var cacheStore *dbRedis.Store
	if cfg.Embedding.CacheQueries {
		cacheStore = store
	}
	queryEmbedder := buildEmbedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, cacheStore, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache_queries", cfg.Embedding.CacheQueries),
	)

	// Documents
	docRepo := documentrepo.New(store, cfg.Embedding.Dimensions, cfg.Database.HNSWM, cfg.Database.HNSWEFConstruct)
	docSvc := documentuc.New(docRepo, docEmbedder, logger)
	if err := docSvc.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to prepare document index", zap.Error(err))
	}
	batchSvc := batchuc.New(docRepo, docRepo, docEmbedder, logger)

	// Hybrid search
	engine := searchuc.NewEngine(
		searchrepo.NewSemanticProvider(store, queryEmbedder),
		searchrepo.NewKeywordProvider(store, cfg.Search.BM25Scale),
		searchuc.Config{
			SemanticWeight:     cfg.Search.SemanticWeight,
			KeywordWeight:      cfg.Search.KeywordWeight,
			Timeout:            time.Duration(cfg.Search.TimeoutMS) * time.Millisecond,
			RecencyBoostDays:   cfg.Search.RecencyBoostDays,
			RecencyBoostFactor: cfg.Search.RecencyBoostFactor,
			DefaultLimit:       cfg.Search.DefaultLimit,
			CandidateMultiple:  cfg.Search.CandidateMultiple,
		},
		logger,
	)

	// Memory injection
	injCache := injectionuc.NewCache(
		time.Duration(cfg.Injection.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Injection.CacheSweepIntervalSeconds)*time.Second,
	)
	injSvc := injectionuc.New(memStore, injCache, injectionuc.Config{
		MaxInstructions: cfg.Injection.MaxInstructions,
		MaxMemories:     cfg.Injection.MaxMemories,
	}, logger)

	healthSvc := healthuc.New(store, memStore, base)

	server := chiTransport.NewServer(engine, injSvc, memStore, docSvc, batchSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	// Let pending access-count updates land before the memory store closes.
	injSvc.Wait()

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The instruction is outermost so cached keys include it. A nil cache store skips the cache.
func buildEmbedder(
	base domain.Embedder,
	embCfg config.EmbeddingConfig,
	instruction string,
	cacheStore *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cacheStore != nil {
		ns := embcache.Namespace{
			Provider:   embCfg.Provider,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
		}
		embedder = embcache.New(base, cacheStore, ns, embcache.DefaultTTL, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, logger)
	return domain.WithInstruction(embedder, instruction)
}
