package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/recall/internal/domain"
	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMemory(userID, fact string) *dommem.Memory {
	return &dommem.Memory{
		UserID:     userID,
		Fact:       fact,
		Category:   dommem.CategoryPreference,
		Confidence: 0.8,
		SourceType: dommem.SourceManual,
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 applied migrations, got %d", n)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreateAndGetMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exp := testNow.Add(24 * time.Hour)
	m := newMemory("u1", "Prefers dark mode")
	m.Metadata = map[string]string{"origin": "settings"}
	m.ExpiresAt = &exp

	if err := s.CreateMemory(ctx, m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.GetMemory(ctx, "u1", m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got.Fact != "Prefers dark mode" || got.Category != dommem.CategoryPreference || got.Confidence != 0.8 {
		t.Errorf("unexpected memory: %+v", got)
	}
	if got.Metadata["origin"] != "settings" {
		t.Errorf("metadata not round-tripped: %v", got.Metadata)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Errorf("expires_at not round-tripped: %v", got.ExpiresAt)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, got.CreatedAt)
	}

	if _, err := s.GetMemory(ctx, "other-user", m.ID); !errors.Is(err, domain.ErrMemoryNotFound) {
		t.Errorf("expected ErrMemoryNotFound for another user, got %v", err)
	}
}

func TestCreateMemory_Invalid(t *testing.T) {
	s := newTestStore(t)

	m := newMemory("u1", "")
	if err := s.CreateMemory(context.Background(), m); !errors.Is(err, domain.ErrInvalidMemory) {
		t.Errorf("expected ErrInvalidMemory, got %v", err)
	}

	m = newMemory("", "fact")
	if err := s.CreateMemory(context.Background(), m); !errors.Is(err, domain.ErrInvalidMemory) {
		t.Errorf("expected ErrInvalidMemory for missing user, got %v", err)
	}
}

func TestListMemories_ExcludesDeletedAndExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	live := newMemory("u1", "live")
	live.CreatedAt = testNow.Add(-time.Hour)
	newer := newMemory("u1", "newer")
	newer.CreatedAt = testNow.Add(-time.Minute)
	expired := newMemory("u1", "expired")
	past := testNow.Add(-time.Second)
	expired.ExpiresAt = &past
	deleted := newMemory("u1", "deleted")
	foreign := newMemory("u2", "someone else")

	for _, m := range []*dommem.Memory{live, newer, expired, deleted, foreign} {
		if err := s.CreateMemory(ctx, m); err != nil {
			t.Fatalf("CreateMemory(%s): %v", m.Fact, err)
		}
	}
	if err := s.SoftDeleteMemory(ctx, "u1", deleted.ID); err != nil {
		t.Fatalf("SoftDeleteMemory: %v", err)
	}

	got, err := s.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 live memories, got %d: %+v", len(got), got)
	}
	if got[0].Fact != "newer" || got[1].Fact != "live" {
		t.Errorf("expected newest first, got %q then %q", got[0].Fact, got[1].Fact)
	}
}

func TestListMemories_ReturnsEveryLiveMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 150
	for i := range n {
		m := newMemory("u1", fmt.Sprintf("fact %d", i))
		m.CreatedAt = testNow.Add(-time.Duration(n-i) * time.Minute)
		if err := s.CreateMemory(ctx, m); err != nil {
			t.Fatalf("CreateMemory: %v", err)
		}
	}

	got, err := s.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d, got %d", n, len(got))
	}
	if got[n-1].Fact != "fact 0" {
		t.Errorf("expected oldest memory last, got %q", got[n-1].Fact)
	}
}

func TestSoftDeleteMemory_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := newMemory("u1", "fact")
	if err := s.CreateMemory(ctx, m); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	if err := s.SoftDeleteMemory(ctx, "u1", m.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.SoftDeleteMemory(ctx, "u1", m.ID); !errors.Is(err, domain.ErrMemoryNotFound) {
		t.Errorf("expected ErrMemoryNotFound on second delete, got %v", err)
	}
	if _, err := s.GetMemory(ctx, "u1", m.ID); !errors.Is(err, domain.ErrMemoryNotFound) {
		t.Errorf("expected deleted memory to be hidden, got %v", err)
	}
}

func TestMarkAccessed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, b := newMemory("u1", "a"), newMemory("u1", "b")
	for _, m := range []*dommem.Memory{a, b} {
		if err := s.CreateMemory(ctx, m); err != nil {
			t.Fatalf("CreateMemory: %v", err)
		}
	}

	at := testNow.Add(time.Minute)
	if err := s.MarkAccessed(ctx, []string{a.ID}, at); err != nil {
		t.Fatalf("MarkAccessed: %v", err)
	}
	if err := s.MarkAccessed(ctx, []string{a.ID, "unknown"}, at); err != nil {
		t.Fatalf("MarkAccessed: %v", err)
	}

	gotA, _ := s.GetMemory(ctx, "u1", a.ID)
	if gotA.AccessCount != 2 {
		t.Errorf("expected access_count 2, got %d", gotA.AccessCount)
	}
	if gotA.LastAccessedAt == nil || !gotA.LastAccessedAt.Equal(at) {
		t.Errorf("unexpected last_accessed_at: %v", gotA.LastAccessedAt)
	}
	gotB, _ := s.GetMemory(ctx, "u1", b.ID)
	if gotB.AccessCount != 0 || gotB.LastAccessedAt != nil {
		t.Errorf("untouched memory changed: %+v", gotB)
	}

	if err := s.MarkAccessed(ctx, nil, at); err != nil {
		t.Errorf("empty MarkAccessed: %v", err)
	}
}

func TestInstructions_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ins := []*dommem.StandingInstruction{
		{UserID: "u1", InstructionText: "Answer in English", Priority: 3, IsActive: true},
		{UserID: "u1", InstructionText: "Be brief", Priority: 8, IsActive: true, ContextHints: []string{"chat"}},
		{UserID: "u1", InstructionText: "Retired rule", Priority: 10, IsActive: false},
		{UserID: "u2", InstructionText: "Other user", Priority: 5, IsActive: true},
	}
	for _, in := range ins {
		if err := s.CreateInstruction(ctx, in); err != nil {
			t.Fatalf("CreateInstruction: %v", err)
		}
	}

	got, err := s.ListInstructions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListInstructions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 active instructions, got %d", len(got))
	}
	if got[0].InstructionText != "Be brief" {
		t.Errorf("expected highest priority first, got %q", got[0].InstructionText)
	}
	if len(got[0].ContextHints) != 1 || got[0].ContextHints[0] != "chat" {
		t.Errorf("context hints not round-tripped: %v", got[0].ContextHints)
	}
	if !got[0].IsActive || got[0].ID == "" {
		t.Errorf("unexpected instruction: %+v", got[0])
	}
}

func TestCreateInstruction_Invalid(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateInstruction(context.Background(), &dommem.StandingInstruction{UserID: "u1"})
	if !errors.Is(err, domain.ErrInvalidInstruction) {
		t.Errorf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name    string
		version int
		desc    string
		ok      bool
	}{
		{"0001_memories.sql", 1, "memories", true},
		{"0012_add_index.sql", 12, "add_index", true},
		{"README.md", 0, "", false},
		{"nounderscore.sql", 0, "", false},
		{"abc_x.sql", 0, "", false},
	}
	for _, tc := range tests {
		v, d, ok := parseMigrationName(tc.name)
		if v != tc.version || d != tc.desc || ok != tc.ok {
			t.Errorf("parseMigrationName(%q) = (%d, %q, %v)", tc.name, v, d, ok)
		}
	}
}
