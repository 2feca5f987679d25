package injection

import (
	"context"
	"time"

	"github.com/kailas-cloud/recall/internal/domain/memory"
)

// Store reads injection candidates for a user.
type Store interface {
	// ListInstructions returns every active standing instruction.
	ListInstructions(ctx context.Context, userID string) ([]memory.StandingInstruction, error)
	// ListMemories returns every live (not deleted, not expired) memory.
	ListMemories(ctx context.Context, userID string) ([]memory.Memory, error)
	// MarkAccessed bumps access_count and last_accessed_at.
	MarkAccessed(ctx context.Context, ids []string, at time.Time) error
}
