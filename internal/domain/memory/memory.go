// Package memory holds the user memory, standing instruction and prompt injection types.
package memory

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxFactLength bounds Memory.Fact in characters.
const MaxFactLength = 2000

// Category classifies what a memory is about.
type Category string

// Memory categories.
const (
	CategoryPriority     Category = "priority"
	CategoryDecision     Category = "decision"
	CategoryContext      Category = "context"
	CategoryPreference   Category = "preference"
	CategoryRelationship Category = "relationship"
	CategoryGoal         Category = "goal"
	CategorySummary      Category = "summary"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPriority, CategoryDecision, CategoryContext, CategoryPreference,
		CategoryRelationship, CategoryGoal, CategorySummary:
		return true
	}
	return false
}

// SourceType records how a memory entered the store.
type SourceType string

// Memory source types.
const (
	SourceManual              SourceType = "manual"
	SourceExtractedFromChat   SourceType = "extracted_from_chat"
	SourceAutoSummary         SourceType = "auto_summary"
	SourceStandingInstruction SourceType = "standing_instruction"
)

// IsValid checks if the source type is one of the supported values.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceExtractedFromChat, SourceAutoSummary, SourceStandingInstruction:
		return true
	}
	return false
}

// Memory is a discrete stored fact about a user.
type Memory struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Fact            string            `json:"fact"`
	Category        Category          `json:"category"`
	Confidence      float64           `json:"confidence"`
	SourceType      SourceType        `json:"source_type"`
	SourceMessageID string            `json:"source_message_id,omitempty"`
	ConversationID  string            `json:"conversation_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty"`
	AccessCount     int               `json:"access_count"`
	LastAccessedAt  *time.Time        `json:"last_accessed_at,omitempty"`
	IsDeleted       bool              `json:"is_deleted"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Validate checks field constraints.
func (m *Memory) Validate() error {
	n := utf8.RuneCountInString(m.Fact)
	if n == 0 {
		return fmt.Errorf("fact is required")
	}
	if n > MaxFactLength {
		return fmt.Errorf("fact too long (max %d chars)", MaxFactLength)
	}
	if !m.Category.IsValid() {
		return fmt.Errorf("invalid category: %q", m.Category)
	}
	if !m.SourceType.IsValid() {
		return fmt.Errorf("invalid source type: %q", m.SourceType)
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	if m.AccessCount < 0 {
		return fmt.Errorf("access count must not be negative")
	}
	return nil
}

// IsExpired reports whether ExpiresAt is set and not after now.
func (m *Memory) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// IsActive reports whether the memory is eligible for injection.
func (m *Memory) IsActive(now time.Time) bool {
	return !m.IsDeleted && !m.IsExpired(now)
}
