package injection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain/memory"
	"github.com/kailas-cloud/recall/internal/metrics"
)

// markAccessedTimeout bounds the detached access-count update.
const markAccessedTimeout = 5 * time.Second

// Config holds injection tuning.
type Config struct {
	MaxInstructions int
	MaxMemories     int
	Weights         Weights
}

// DefaultConfig returns the injection defaults.
func DefaultConfig() Config {
	return Config{
		MaxInstructions: 5,
		MaxMemories:     10,
		Weights:         DefaultWeights(),
	}
}

// Service prepares ranked memory injections for prompts.
type Service struct {
	store  Store
	cache  *Cache
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// New creates an injection service.
func New(store Store, cache *Cache, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.MaxInstructions <= 0 {
		cfg.MaxInstructions = def.MaxInstructions
	}
	if cfg.MaxMemories <= 0 {
		cfg.MaxMemories = def.MaxMemories
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// PrepareInjection returns the instructions and memories to inject for a conversation.
// It never fails: store errors and panics yield a fallback injection with Stats.Error set,
// which is not cached.
func (s *Service) PrepareInjection(ctx context.Context, userID, conversationID, currentMessage string) memory.Injection {
	key := CacheKey(userID, conversationID)

	if cached, ok := s.cache.Get(key); ok {
		metrics.InjectionCacheTotal.WithLabelValues("hit").Inc()
		cached.Stats.CacheHit = true
		return cached
	}
	metrics.InjectionCacheTotal.WithLabelValues("miss").Inc()

	start := time.Now()
	inj, err := s.build(ctx, userID, conversationID, currentMessage)
	elapsed := time.Since(start)

	if err != nil {
		metrics.InjectionDuration.WithLabelValues("fallback").Observe(elapsed.Seconds())
		s.logger.Warn("injection fallback",
			zap.String("user_id", userID),
			zap.String("conversation_id", conversationID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		fb := memory.Fallback(userID, conversationID, err)
		fb.InjectionTimeMS = elapsed.Milliseconds()
		return fb
	}

	inj.InjectionTimeMS = elapsed.Milliseconds()
	inj.Stats = memory.Stats{
		InstructionsCount: len(inj.StandingInstructions),
		MemoriesCount:     len(inj.Memories),
	}
	s.cache.Set(key, inj)
	metrics.InjectionDuration.WithLabelValues("ok").Observe(elapsed.Seconds())

	s.logger.Debug("injection prepared",
		zap.String("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.Int("instructions", inj.Stats.InstructionsCount),
		zap.Int("memories", inj.Stats.MemoriesCount),
		zap.Duration("elapsed", elapsed),
	)

	s.markAccessed(ctx, inj.Memories)

	return inj
}

// Invalidate drops the cached injection for one conversation.
func (s *Service) Invalidate(userID, conversationID string) {
	s.cache.Delete(CacheKey(userID, conversationID))
}

// InvalidateUser drops every cached injection of a user.
func (s *Service) InvalidateUser(userID string) {
	n := s.cache.DeletePrefix(userID + ":")
	s.logger.Debug("injection cache invalidated", zap.String("user_id", userID), zap.Int("entries", n))
}

// Wait blocks until pending access-count updates finish. Called on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) build(
	ctx context.Context, userID, conversationID, currentMessage string,
) (inj memory.Injection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prepare injection panic: %v", r)
		}
	}()

	instructions, err := s.store.ListInstructions(ctx, userID)
	if err != nil {
		return memory.Injection{}, fmt.Errorf("list instructions: %w", err)
	}
	candidates, err := s.store.ListMemories(ctx, userID)
	if err != nil {
		return memory.Injection{}, fmt.Errorf("list memories: %w", err)
	}

	now := s.now()
	instructions = RankInstructions(instructions, now, s.cfg.MaxInstructions)
	memories := RankMemories(candidates, now, s.cfg.Weights, currentMessage, s.cfg.MaxMemories)

	return memory.Injection{
		UserID:               userID,
		ConversationID:       conversationID,
		StandingInstructions: instructions,
		Memories:             memories,
		InjectionText:        FormatInjection(instructions, memories, now),
	}, nil
}

// markAccessed records the selection in the background. Failures are logged only.
func (s *Service) markAccessed(ctx context.Context, memories []memory.Memory) {
	if len(memories) == 0 {
		return
	}
	ids := make([]string, len(memories))
	for i := range memories {
		ids[i] = memories[i].ID
	}
	at := s.now()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markAccessedTimeout)
		defer cancel()
		if err := s.store.MarkAccessed(ctx, ids, at); err != nil {
			s.logger.Warn("mark memories accessed", zap.Int("count", len(ids)), zap.Error(err))
		}
	}()
}
