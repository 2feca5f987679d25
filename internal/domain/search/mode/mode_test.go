package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Auto, Hybrid, Semantic, Keyword}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "full-text", "vector", "AUTO"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestProviderSelection(t *testing.T) {
	tests := []struct {
		m        Mode
		semantic bool
		keyword  bool
	}{
		{Auto, true, true},
		{Hybrid, true, true},
		{Semantic, true, false},
		{Keyword, false, true},
	}
	for _, tc := range tests {
		if got := tc.m.UsesSemantic(); got != tc.semantic {
			t.Errorf("%q.UsesSemantic() = %v, want %v", tc.m, got, tc.semantic)
		}
		if got := tc.m.UsesKeyword(); got != tc.keyword {
			t.Errorf("%q.UsesKeyword() = %v, want %v", tc.m, got, tc.keyword)
		}
	}
}
