package result

import "time"

// WildcardPermission grants access to every caller.
const WildcardPermission = "*"

// Metadata keys a semantic provider uses to pass access control and origin.
// Fusion lifts them into dedicated Hybrid fields.
const (
	MetaPermissions = "permissions" // comma separated
	MetaSourceID    = "source_id"
)

// Semantic is a hit from the vector-search provider.
type Semantic struct {
	DocID     string
	Score     float64 // similarity in [0,1]
	Text      string
	Title     string
	Source    string
	Metadata  map[string]string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Keyword is a hit from the full-text provider.
type Keyword struct {
	DocID          string
	Title          string
	Content        string
	SourceType     string
	SourceID       string
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
	Permissions    []string
	Metadata       map[string]string
	BM25Score      float64 // normalized into [0,1]
	ContentPreview string
}

// Hybrid is one fused entry per unique DocID.
type Hybrid struct {
	DocID          string            `json:"doc_id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	SourceType     string            `json:"source_type"`
	SourceID       string            `json:"source_id,omitempty"`
	CreatedAt      *time.Time        `json:"created_at,omitempty"`
	UpdatedAt      *time.Time        `json:"updated_at,omitempty"`
	Permissions    []string          `json:"permissions"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	SemanticScore  float64           `json:"semantic_score"`
	KeywordScore   float64           `json:"keyword_score"`
	CombinedScore  float64           `json:"combined_score"`
	ContentPreview string            `json:"content_preview"`
	Rank           int               `json:"rank"`
}

// Allows reports whether a caller holding perms may see this result: the sets
// intersect or the result is open to everyone.
func (h *Hybrid) Allows(perms []string) bool {
	for _, p := range h.Permissions {
		if p == WildcardPermission {
			return true
		}
	}
	for _, have := range perms {
		for _, p := range h.Permissions {
			if p == have {
				return true
			}
		}
	}
	return false
}
