package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/recall/internal/domain"
	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
)

const instructionColumns = `id, user_id, instruction_text, category, priority, context_hints,
	usage_count, last_used_at, is_active, created_at`

// CreateInstruction validates and inserts a standing instruction. Empty ID and CreatedAt are filled in.
func (s *Store) CreateInstruction(ctx context.Context, in *dommem.StandingInstruction) error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInstruction)
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInstruction, err)
	}

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now().UTC()
	}

	hints, err := marshalJSON(in.ContextHints)
	if err != nil {
		return fmt.Errorf("marshal context hints: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO standing_instructions (`+instructionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.InstructionText, in.Category, in.Priority, hints,
		in.UsageCount, nullMillis(in.LastUsedAt), in.IsActive, toMillis(in.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert instruction: %w", err)
	}
	return nil
}

// ListInstructions returns every active instruction of a user, highest priority first.
func (s *Store) ListInstructions(ctx context.Context, userID string) ([]dommem.StandingInstruction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+instructionColumns+` FROM standing_instructions
		WHERE user_id = ? AND is_active = 1
		ORDER BY priority DESC, created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dommem.StandingInstruction
	for rows.Next() {
		var (
			in        dommem.StandingInstruction
			hints     sql.NullString
			lastUsed  sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(
			&in.ID, &in.UserID, &in.InstructionText, &in.Category, &in.Priority, &hints,
			&in.UsageCount, &lastUsed, &in.IsActive, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		in.LastUsedAt = fromNullMillis(lastUsed)
		in.CreatedAt = fromMillis(createdAt)
		if hints.Valid && hints.String != "" {
			if err := json.Unmarshal([]byte(hints.String), &in.ContextHints); err != nil {
				return nil, fmt.Errorf("decode context hints of %s: %w", in.ID, err)
			}
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	return out, nil
}
