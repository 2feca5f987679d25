package search

import (
	"testing"

	"github.com/kailas-cloud/recall/internal/domain/search/kind"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  kind.Kind
	}{
		{"ticket-123 status", kind.Keyword},
		{"what is artificial intelligence", kind.Semantic},
		{"customer feedback on AI features", kind.Mixed},
		{"https://example.com/docs", kind.Keyword},
		{"www.example.com pricing", kind.Keyword},
		{"mail alice@example.com about renewal", kind.Keyword},
		{`"quarterly roadmap"`, kind.Keyword},
		{"/etc/nginx/nginx.conf", kind.Keyword},
		{`docs\design notes`, kind.Keyword},
		{"budget.xlsx", kind.Keyword},
		{"how do we deploy", kind.Semantic},
		{"Explain the onboarding flow", kind.Semantic},
		{"summarize last week", kind.Semantic},
		{"tell me about the launch", kind.Semantic},
		{"is the launch delayed", kind.Semantic},
		{"launch delayed?", kind.Semantic},
		{"quarterly revenue numbers", kind.Mixed},
		{"   ", kind.Mixed},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Classify(tt.query); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassify_KeywordWinsOverQuestion(t *testing.T) {
	// first match wins: an identifier in a question is still a keyword lookup
	if got := Classify("what is the status of ticket-123?"); got != kind.Keyword {
		t.Errorf("expected keyword, got %q", got)
	}
}
