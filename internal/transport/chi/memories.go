package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
	logpkg "github.com/kailas-cloud/recall/internal/logger"
)

// defaultConfidence applies when a memory is created without a confidence.
const defaultConfidence = 1.0

// CreateMemoryRequest is the POST /users/{userID}/memories body.
type CreateMemoryRequest struct {
	Fact            string            `json:"fact"`
	Category        string            `json:"category"`
	Confidence      *float64          `json:"confidence"`
	SourceType      string            `json:"source_type"`
	SourceMessageID string            `json:"source_message_id"`
	ConversationID  string            `json:"conversation_id"`
	Metadata        map[string]string `json:"metadata"`
	ExpiresAt       *time.Time        `json:"expires_at"`
}

// CreateInstructionRequest is the POST /users/{userID}/instructions body.
type CreateInstructionRequest struct {
	InstructionText string   `json:"instruction_text"`
	Category        string   `json:"category"`
	Priority        int      `json:"priority"`
	ContextHints    []string `json:"context_hints"`
}

// CreateMemory handles POST /users/{userID}/memories.
func (s *Server) CreateMemory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m := memoryFromRequest(userID, req)
	if err := s.memories.CreateMemory(r.Context(), &m); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.injection.InvalidateUser(userID)

	logpkg.FromContextOr(r.Context(), s.logger).Debug("memory created",
		zap.String("user_id", userID),
		zap.String("memory_id", m.ID),
		zap.String("category", string(m.Category)),
	)
	writeJSON(w, http.StatusCreated, m)
}

// DeleteMemory handles DELETE /users/{userID}/memories/{memoryID}.
func (s *Server) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	memoryID := chi.URLParam(r, "memoryID")

	if err := s.memories.SoftDeleteMemory(r.Context(), userID, memoryID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.injection.InvalidateUser(userID)

	w.WriteHeader(http.StatusNoContent)
}

// CreateInstruction handles POST /users/{userID}/instructions. New instructions start active.
func (s *Server) CreateInstruction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req CreateInstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in := dommem.StandingInstruction{
		UserID:          userID,
		InstructionText: req.InstructionText,
		Category:        req.Category,
		Priority:        req.Priority,
		ContextHints:    req.ContextHints,
		IsActive:        true,
	}
	if err := s.memories.CreateInstruction(r.Context(), &in); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.injection.InvalidateUser(userID)

	writeJSON(w, http.StatusCreated, in)
}

func memoryFromRequest(userID string, req CreateMemoryRequest) dommem.Memory {
	confidence := defaultConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	source := dommem.SourceType(req.SourceType)
	if source == "" {
		source = dommem.SourceManual
	}
	return dommem.Memory{
		UserID:          userID,
		Fact:            req.Fact,
		Category:        dommem.Category(req.Category),
		Confidence:      confidence,
		SourceType:      source,
		SourceMessageID: req.SourceMessageID,
		ConversationID:  req.ConversationID,
		Metadata:        req.Metadata,
		ExpiresAt:       req.ExpiresAt,
	}
}
