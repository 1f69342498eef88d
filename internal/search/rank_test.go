package search

import (
	"testing"

	"github.com/mmcdole/cinetrack/internal/domain"
)

func candidateTitles(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Title
	}
	return out
}

func TestRank(t *testing.T) {
	in := []domain.Candidate{
		{ExternalID: 1, Title: "The Dark Knight Rises"},
		{ExternalID: 2, Title: "Batman"},
		{ExternalID: 3, Title: "Dark"},
		{ExternalID: 4, Title: "Darkman"},
		{ExternalID: 5, Title: "Drk"},
	}

	got := candidateTitles(Rank("dark", in))
	want := []string{"Dark", "Darkman", "The Dark Knight Rises", "Batman", "Drk"}
	if len(got) != len(want) {
		t.Fatalf("Rank = %v", got)
	}
	for i := range want[:3] {
		if got[i] != want[i] {
			t.Errorf("Rank[%d] = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
	if in[0].ExternalID != 1 {
		t.Error("input slice was reordered")
	}
}

func TestRankStableForTies(t *testing.T) {
	in := []domain.Candidate{
		{ExternalID: 1, Title: "Heat", Kind: domain.KindMovie},
		{ExternalID: 2, Title: "Heat", Kind: domain.KindSeries},
	}
	got := Rank("heat", in)
	if got[0].ExternalID != 1 || got[1].ExternalID != 2 {
		t.Errorf("ties reordered: %+v", got)
	}
}

func TestCalculateMatchScore(t *testing.T) {
	tests := []struct {
		title, query string
		want         int
	}{
		{"heat", "heat", 0},
		{"heat wave", "heat", 10},
		{"the heat", "heat", 50},
	}
	for _, tt := range tests {
		if got := calculateMatchScore(tt.title, tt.query); got != tt.want {
			t.Errorf("calculateMatchScore(%q, %q) = %d, want %d", tt.title, tt.query, got, tt.want)
		}
	}

	if sub, lev := calculateMatchScore("breaking bad", "brkbd"), calculateMatchScore("heat", "brkbd"); sub >= lev {
		t.Errorf("subsequence match %d should beat edit distance %d", sub, lev)
	}
}
