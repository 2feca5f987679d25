// Package kind labels a query by the retrieval path it leans on.
package kind

// Kind is the classification assigned to a query.
type Kind string

// Query kinds.
const (
	Keyword  Kind = "keyword"
	Semantic Kind = "semantic"
	Mixed    Kind = "mixed"
)
