package db

// TagFilter keeps documents whose TAG field holds any of Values.
// Several filters on one query are AND-ed.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
// Terms are OR-ed so natural-language queries match partially; BM25 rewards documents
// that match more of them.
type TextQuery struct {
	IndexName    string
	Query        string
	TextFields   []string // restrict matching to these TEXT fields; empty means all
	Filters      []TagFilter
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
