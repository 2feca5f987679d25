package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	logpkg "github.com/kailas-cloud/recall/internal/logger"
)

// ErrorCode is a machine-readable error identifier returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest                ErrorCode = "bad_request"
	CodeUnauthorized              ErrorCode = "unauthorized"
	CodeValidationFailed          ErrorCode = "validation_failed"
	CodeInvalidQuery              ErrorCode = "invalid_query"
	CodeNotFound                  ErrorCode = "not_found"
	CodeMemoryNotFound            ErrorCode = "memory_not_found"
	CodeDocumentNotFound          ErrorCode = "document_not_found"
	CodeVectorDimMismatch         ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingProviderError    ErrorCode = "embedding_provider_error"
	CodeKeywordSearchNotSupported ErrorCode = "keyword_search_not_supported"
	CodeInternalError             ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationSentinels carry client input problems; their wrapped detail is safe to return.
var validationSentinels = []error{
	domain.ErrInvalidMemory,
	domain.ErrInvalidInstruction,
	domain.ErrInvalidDocument,
	domain.ErrInvalidQuery,
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range validationSentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	sentinels := []error{
		domain.ErrMemoryNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrKeywordSearchNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError maps domain errors to HTTP responses.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
