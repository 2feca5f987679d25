package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/recall/internal/domain"
	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
)

const memoryColumns = `id, user_id, fact, category, confidence, source_type, source_message_id,
	conversation_id, metadata, expires_at, access_count, last_accessed_at, is_deleted,
	created_at, updated_at`

// CreateMemory validates and inserts a memory. Empty ID and timestamps are filled in.
func (s *Store) CreateMemory(ctx context.Context, m *dommem.Memory) error {
	if m.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidMemory)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidMemory, err)
	}

	now := s.now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	metadata, err := marshalJSON(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Fact, string(m.Category), m.Confidence, string(m.SourceType),
		m.SourceMessageID, m.ConversationID, metadata, nullMillis(m.ExpiresAt),
		m.AccessCount, nullMillis(m.LastAccessedAt), m.IsDeleted,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// GetMemory returns a live memory of the user. Soft-deleted memories are not found.
func (s *Store) GetMemory(ctx context.Context, userID, id string) (dommem.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ? AND user_id = ? AND is_deleted = 0`,
		id, userID,
	)
	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dommem.Memory{}, domain.ErrMemoryNotFound
		}
		return dommem.Memory{}, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// SoftDeleteMemory hides a memory from every read path.
func (s *Store) SoftDeleteMemory(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET is_deleted = 1, updated_at = ? WHERE id = ? AND user_id = ? AND is_deleted = 0`,
		toMillis(s.now()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n == 0 {
		return domain.ErrMemoryNotFound
	}
	return nil
}

// ListMemories returns every live (not deleted, not expired) memory of a user, newest first.
// Selection is left to the ranker: no SQL order can match a score that depends on the
// current message.
func (s *Store) ListMemories(ctx context.Context, userID string) ([]dommem.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+` FROM memories
		WHERE user_id = ? AND is_deleted = 0 AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at DESC, id`,
		userID, toMillis(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dommem.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return out, nil
}

// MarkAccessed bumps access_count and last_accessed_at of the given memories in one transaction.
func (s *Store) MarkAccessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark accessed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare mark accessed: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ms := toMillis(at)
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, ms, id); err != nil {
			return fmt.Errorf("mark accessed %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark accessed: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (dommem.Memory, error) {
	var (
		m                         dommem.Memory
		category, sourceType      string
		metadata                  sql.NullString
		expiresAt, lastAccessedAt sql.NullInt64
		createdAt, updatedAt      int64
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Fact, &category, &m.Confidence, &sourceType, &m.SourceMessageID,
		&m.ConversationID, &metadata, &expiresAt, &m.AccessCount, &lastAccessedAt, &m.IsDeleted,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return dommem.Memory{}, err
	}

	m.Category = dommem.Category(category)
	m.SourceType = dommem.SourceType(sourceType)
	m.ExpiresAt = fromNullMillis(expiresAt)
	m.LastAccessedAt = fromNullMillis(lastAccessedAt)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return dommem.Memory{}, fmt.Errorf("decode metadata of %s: %w", m.ID, err)
		}
	}
	return m, nil
}

// marshalJSON encodes v, storing NULL for empty values.
func marshalJSON[T any](v T) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	s := string(data)
	if s == "null" || s == "{}" || s == "[]" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: s, Valid: true}, nil
}
