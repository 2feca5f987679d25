package memory

import (
	"fmt"
	"time"
)

// StandingInstruction is a persistent directive injected into every prompt for a user.
type StandingInstruction struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	InstructionText string     `json:"instruction_text"`
	Category        string     `json:"category"`
	Priority        int        `json:"priority"`
	ContextHints    []string   `json:"context_hints,omitempty"`
	UsageCount      int        `json:"usage_count"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Validate checks field constraints.
func (s *StandingInstruction) Validate() error {
	if s.InstructionText == "" {
		return fmt.Errorf("instruction text is required")
	}
	if len(s.InstructionText) > MaxFactLength {
		return fmt.Errorf("instruction text too long (max %d chars)", MaxFactLength)
	}
	if s.Priority < 0 {
		return fmt.Errorf("priority must not be negative")
	}
	if s.UsageCount < 0 {
		return fmt.Errorf("usage count must not be negative")
	}
	return nil
}
