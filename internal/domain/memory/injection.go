package memory

import (
	"maps"
	"slices"
	"time"
)

// Stats describes how an Injection was produced.
type Stats struct {
	CacheHit          bool   `json:"cache_hit"`
	InstructionsCount int    `json:"instructions_count"`
	MemoriesCount     int    `json:"memories_count"`
	Error             string `json:"error,omitempty"`
}

// Injection is the ranked context block inserted into an LLM system prompt.
type Injection struct {
	UserID               string                `json:"user_id"`
	ConversationID       string                `json:"conversation_id"`
	StandingInstructions []StandingInstruction `json:"standing_instructions"`
	Memories             []Memory              `json:"memories"`
	InjectionText        string                `json:"injection_text"`
	InjectionTimeMS      int64                 `json:"injection_time_ms"`
	Stats                Stats                 `json:"performance_stats"`
}

// Fallback returns an empty injection carrying the failure reason.
func Fallback(userID, conversationID string, err error) Injection {
	inj := Injection{
		UserID:               userID,
		ConversationID:       conversationID,
		StandingInstructions: []StandingInstruction{},
		Memories:             []Memory{},
	}
	if err != nil {
		inj.Stats.Error = err.Error()
	}
	return inj
}

// Clone returns a deep copy. Cached injections are handed out as clones so callers
// cannot reach the cached entry through shared slices, maps or pointers.
func (inj Injection) Clone() Injection {
	out := inj
	if inj.StandingInstructions != nil {
		out.StandingInstructions = make([]StandingInstruction, len(inj.StandingInstructions))
		for i := range inj.StandingInstructions {
			in := inj.StandingInstructions[i]
			in.ContextHints = slices.Clone(in.ContextHints)
			in.LastUsedAt = cloneTime(in.LastUsedAt)
			out.StandingInstructions[i] = in
		}
	}
	if inj.Memories != nil {
		out.Memories = make([]Memory, len(inj.Memories))
		for i := range inj.Memories {
			m := inj.Memories[i]
			m.Metadata = maps.Clone(m.Metadata)
			m.ExpiresAt = cloneTime(m.ExpiresAt)
			m.LastAccessedAt = cloneTime(m.LastAccessedAt)
			out.Memories[i] = m
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
