package search

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/recall/internal/domain/search/kind"
)

// Patterns that mark a query as a lookup of an exact token. Checked in order.
var keywordPatterns = []*regexp.Regexp{
	// URL
	regexp.MustCompile(`(?i)\b(?:https?|ftp)://\S+|\bwww\.\S+\.\S+`),
	// email
	regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`),
	// hyphenated identifier: ticket-123, PROJ-42
	regexp.MustCompile(`\b\w+-\w+\b`),
	// "exact phrase"
	regexp.MustCompile(`"[^"]+"`),
	// /abs/path, dir\file, name.ext
	regexp.MustCompile(`(?:^|\s)/[\w.-]+(?:/[\w.-]*)*|\b\w+\\[\w.\\-]+|\b[\w-]+\.[a-zA-Z]{1,5}\b`),
}

var (
	semanticTriggers = regexp.MustCompile(
		`(?i)\b(?:what|how|why|when|where|who|which|explain|describe|summari[sz]e|tell me|can you|could you)\b`)
	interrogativeOpener = regexp.MustCompile(
		`(?i)^(?:is|are|was|were|do|does|did|should|would|will|can|could|has|have)\b`)
)

// Classify labels a query by the retrieval path it leans on. First match wins:
// exact-token patterns mean keyword, question phrasing means semantic, anything else is mixed.
func Classify(query string) kind.Kind {
	q := strings.TrimSpace(query)
	if q == "" {
		return kind.Mixed
	}

	for _, p := range keywordPatterns {
		if p.MatchString(q) {
			return kind.Keyword
		}
	}

	if semanticTriggers.MatchString(q) || interrogativeOpener.MatchString(q) || strings.HasSuffix(q, "?") {
		return kind.Semantic
	}

	return kind.Mixed
}
