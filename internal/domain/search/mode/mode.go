package mode

// Mode is the search strategy requested by the caller.
type Mode string

// Search mode constants.
const (
	// Auto classifies the query and queries both providers.
	Auto Mode = "auto"
	// Hybrid queries both providers without classification.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Auto || m == Hybrid || m == Semantic || m == Keyword
}

// UsesSemantic reports whether the semantic provider is queried in this mode.
func (m Mode) UsesSemantic() bool { return m != Keyword }

// UsesKeyword reports whether the keyword provider is queried in this mode.
func (m Mode) UsesKeyword() bool { return m != Semantic }
