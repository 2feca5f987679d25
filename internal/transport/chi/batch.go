package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/recall/internal/domain"
	dombatch "github.com/kailas-cloud/recall/internal/domain/batch"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// maxBatchBodyBytes caps batch request bodies: 100 documents of 160KB each plus envelope.
const maxBatchBodyBytes = 20 << 20

// BatchIndexRequest is the POST /documents/batch body.
type BatchIndexRequest struct {
	Documents []IndexDocumentRequest `json:"documents"`
}

// BatchDeleteRequest is the DELETE /documents/batch body.
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchResultItem reports the outcome of one batch item.
type BatchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse is the reply of both batch endpoints.
type BatchResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// BatchIndexDocuments handles POST /documents/batch. Per-item failures do not fail the request.
func (s *Server) BatchIndexDocuments(w http.ResponseWriter, r *http.Request) {
	var req BatchIndexRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documents must not be empty")
		return
	}

	items := make([]domdoc.Params, len(req.Documents))
	for i := range req.Documents {
		items[i] = documentParams(req.Documents[i])
	}

	writeJSON(w, http.StatusOK, batchResponse(s.batch.Index(r.Context(), items)))
}

// BatchDeleteDocuments handles DELETE /documents/batch.
func (s *Server) BatchDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "ids must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, batchResponse(s.batch.Delete(r.Context(), req.IDs)))
}

func batchResponse(results []dombatch.Result) BatchResponse {
	resp := BatchResponse{Items: make([]BatchResultItem, len(results))}
	resp.Succeeded, resp.Failed = dombatch.Count(results)
	for i, res := range results {
		item := BatchResultItem{ID: res.ID(), Status: string(res.Status())}
		if err := res.Err(); err != nil {
			item.Error = &ErrorResponse{Code: batchErrorCode(err), Message: safeDomainMessage(err)}
		}
		resp.Items[i] = item
	}
	return resp
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return CodeDocumentNotFound
	case errors.Is(err, domain.ErrInvalidDocument):
		return CodeValidationFailed
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return CodeVectorDimMismatch
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return CodeEmbeddingProviderError
	default:
		return CodeInternalError
	}
}
