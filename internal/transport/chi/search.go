package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/search/kind"
	"github.com/kailas-cloud/recall/internal/domain/search/mode"
	"github.com/kailas-cloud/recall/internal/domain/search/request"
	"github.com/kailas-cloud/recall/internal/domain/search/result"
)

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query               string   `json:"query"`
	Permissions         []string `json:"permissions"`
	SourceFilter        string   `json:"source_filter"`
	Limit               int      `json:"limit"`
	SearchType          string   `json:"search_type"`
	IncludeRecencyBoost *bool    `json:"include_recency_boost"`
}

// SearchResponse is the POST /search reply. Results is never null.
type SearchResponse struct {
	Results   []result.Hybrid `json:"results"`
	QueryKind kind.Kind       `json:"query_kind,omitempty"`
}

// Search handles POST /search. Provider failures degrade the result list, never the status.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := searchRequestFromBody(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, info := s.search.SearchWithInfo(r.Context(), req)
	if results == nil {
		results = []result.Hybrid{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results:   results,
		QueryKind: info.Kind,
	})
}

// SearchStats handles GET /search/stats.
func (s *Server) SearchStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.search.Stats())
}

func searchRequestFromBody(body SearchRequest) (request.Request, error) {
	recency := true
	if body.IncludeRecencyBoost != nil {
		recency = *body.IncludeRecencyBoost
	}

	req, err := request.New(
		body.Query,
		body.Permissions,
		body.SourceFilter,
		body.Limit,
		mode.Mode(body.SearchType),
		recency,
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return req, nil
}
