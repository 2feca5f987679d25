package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/recall/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	MaxLimit       = 100
)

// Request is a validated hybrid search query.
type Request struct {
	query        string
	permissions  []string
	sourceFilter string
	limit        int
	searchMode   mode.Mode
	recencyBoost bool
}

// New validates and normalizes search parameters.
// Defaults: mode=auto. A zero limit means "engine default". Limit is clamped to MaxLimit.
func New(
	query string,
	permissions []string,
	sourceFilter string,
	limit int,
	m mode.Mode,
	recencyBoost bool,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Auto
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search type: %q", m)
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("limit must not be negative")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		query:        query,
		permissions:  permissions,
		sourceFilter: sourceFilter,
		limit:        limit,
		searchMode:   m,
		recencyBoost: recencyBoost,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Permissions returns the caller's permission set.
func (r *Request) Permissions() []string { return r.permissions }

// SourceFilter returns the exact source_type to keep, or "" for all.
func (r *Request) SourceFilter() string { return r.sourceFilter }

// Limit returns the maximum results to return (0 = engine default).
func (r *Request) Limit() int { return r.limit }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// RecencyBoost reports whether the recency boost is applied.
func (r *Request) RecencyBoost() bool { return r.recencyBoost }
