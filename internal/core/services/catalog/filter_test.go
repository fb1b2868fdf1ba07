package catalog

import (
	"testing"

	"gitlab.com/toku-assess.net/internal/domain"
)

func sampleCatalog() []*domain.Challenge {
	return []*domain.Challenge{
		{Slug: "tower-of-hanoi", Title: "Tower of Hanoi", Description: "Move disks between pegs.", Difficulty: domain.DifficultyMedium, Languages: []string{"python", "java"}, Tags: []string{"recursion"}},
		{Slug: "factorial", Title: "Factorial", Description: "Compute n! recursively.", Difficulty: domain.DifficultyEasy, Languages: []string{"python", "javascript"}, Tags: []string{"recursion", "math"}},
		{Slug: "two-sum", Title: "Two Sum", Description: "Find two numbers adding to a target.", Difficulty: domain.DifficultyEasy, Languages: []string{"python", "go"}, Tags: []string{"arrays", "hashing"}},
		{Slug: "fibonacci", Title: "Fibonacci", Description: "Print the n-th Fibonacci number.", Difficulty: domain.DifficultyEasy, Languages: []string{"javascript"}, Tags: []string{"Recursion", "Dynamic Programming"}},
		{Slug: "lru-cache", Title: "LRU Cache", Description: "Design a least recently used cache.", Difficulty: domain.DifficultyHard, Languages: []string{"java", "go"}, Tags: []string{"design"}},
	}
}

func slugs(challenges []*domain.Challenge) []string {
	out := make([]string, len(challenges))
	for i, c := range challenges {
		out[i] = c.Slug
	}
	return out
}

func equalSlugs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.ChallengeFilter
		want   []string
	}{
		{
			name:   "empty filter matches all in slug order",
			filter: domain.ChallengeFilter{},
			want:   []string{"factorial", "fibonacci", "lru-cache", "tower-of-hanoi", "two-sum"},
		},
		{
			name:   "easy and recursion",
			filter: domain.ChallengeFilter{Difficulties: []domain.Difficulty{domain.DifficultyEasy}, Tags: []string{"recursion"}},
			want:   []string{"factorial", "fibonacci"},
		},
		{
			name:   "difficulty set",
			filter: domain.ChallengeFilter{Difficulties: []domain.Difficulty{domain.DifficultyMedium, domain.DifficultyHard}},
			want:   []string{"lru-cache", "tower-of-hanoi"},
		},
		{
			name:   "language intersection",
			filter: domain.ChallengeFilter{Languages: []string{"Go", "ruby"}},
			want:   []string{"lru-cache", "two-sum"},
		},
		{
			name:   "tag spelled as label",
			filter: domain.ChallengeFilter{Tags: []string{"dynamic programming"}},
			want:   []string{"fibonacci"},
		},
		{
			name:   "free text in title",
			filter: domain.ChallengeFilter{Query: "  HANOI "},
			want:   []string{"tower-of-hanoi"},
		},
		{
			name:   "free text in description",
			filter: domain.ChallengeFilter{Query: "recursively"},
			want:   []string{"factorial"},
		},
		{
			name:   "all constraints combined",
			filter: domain.ChallengeFilter{Difficulties: []domain.Difficulty{domain.DifficultyEasy}, Languages: []string{"python"}, Tags: []string{"math"}, Query: "fact"},
			want:   []string{"factorial"},
		},
		{
			name:   "no match",
			filter: domain.ChallengeFilter{Difficulties: []domain.Difficulty{domain.DifficultyHard}, Tags: []string{"recursion"}},
			want:   []string{},
		},
		{
			name:   "blank values do not constrain",
			filter: domain.ChallengeFilter{Tags: []string{" "}, Languages: []string{""}, Query: "   "},
			want:   []string{"factorial", "fibonacci", "lru-cache", "tower-of-hanoi", "two-sum"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := slugs(Apply(sampleCatalog(), tt.filter))
			if !equalSlugs(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagSymbolsStayDistinct(t *testing.T) {
	catalog := []*domain.Challenge{
		{Slug: "cpp-pointers", Tags: []string{"C++"}},
		{Slug: "csharp-linq", Tags: []string{"C#"}},
		{Slug: "c-strings", Tags: []string{"C"}},
	}

	tests := []struct {
		tag  string
		want []string
	}{
		{tag: "c++", want: []string{"cpp-pointers"}},
		{tag: "C#", want: []string{"csharp-linq"}},
		{tag: "c", want: []string{"c-strings"}},
	}
	for _, tt := range tests {
		got := slugs(Apply(catalog, domain.ChallengeFilter{Tags: []string{tt.tag}}))
		if !equalSlugs(got, tt.want) {
			t.Errorf("Apply(tag %q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestApplyIsRepeatable(t *testing.T) {
	catalog := sampleCatalog()
	filter := domain.ChallengeFilter{Difficulties: []domain.Difficulty{domain.DifficultyEasy}, Tags: []string{"recursion"}}

	first := slugs(Apply(catalog, filter))
	for i := 0; i < 5; i++ {
		if got := slugs(Apply(catalog, filter)); !equalSlugs(got, first) {
			t.Fatalf("call %d returned %v, first call returned %v", i, got, first)
		}
	}
	if catalog[0].Slug != "tower-of-hanoi" {
		t.Errorf("Apply reordered its input")
	}
}

func TestMatchSingleChallenge(t *testing.T) {
	c := sampleCatalog()[2]
	if !Match(c, domain.ChallengeFilter{Query: "target"}) {
		t.Errorf("expected two-sum to match description text")
	}
	if Match(c, domain.ChallengeFilter{Languages: []string{"java"}}) {
		t.Errorf("two-sum does not support java")
	}
}
