package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// IndexDocumentRequest is the POST /documents body: an already-parsed document.
type IndexDocumentRequest struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	SourceType  string            `json:"source_type"`
	SourceID    string            `json:"source_id"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   *time.Time        `json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at"`
}

// DocumentResponse describes an indexed document. Content and vector are omitted.
type DocumentResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	SourceType  string            `json:"source_type"`
	SourceID    string            `json:"source_id,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IndexDocument handles POST /documents.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.documents.Index(r.Context(), documentParams(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/documents/"+doc.ID())
	writeJSON(w, http.StatusCreated, documentToResponse(&doc))
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentParams(req IndexDocumentRequest) domdoc.Params {
	p := domdoc.Params{
		ID:          req.ID,
		Title:       req.Title,
		Content:     req.Content,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Permissions: req.Permissions,
		Metadata:    req.Metadata,
	}
	if req.CreatedAt != nil {
		p.CreatedAt = *req.CreatedAt
	}
	if req.UpdatedAt != nil {
		p.UpdatedAt = *req.UpdatedAt
	}
	return p
}

func documentToResponse(d *domdoc.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID(),
		Title:       d.Title(),
		SourceType:  d.SourceType(),
		SourceID:    d.SourceID(),
		Permissions: d.Permissions(),
		Metadata:    d.Metadata(),
		CreatedAt:   d.CreatedAt(),
		UpdatedAt:   d.UpdatedAt(),
	}
}
