package catalog

import (
	"sort"
	"strings"

	"github.com/gosimple/slug"

	"gitlab.com/toku-assess.net/internal/domain"
)

// Apply returns the challenges matching every non-empty filter constraint,
// ordered by slug. The input slice is not modified.
func Apply(challenges []*domain.Challenge, filter domain.ChallengeFilter) []*domain.Challenge {
	m := newMatcher(filter)
	matched := make([]*domain.Challenge, 0, len(challenges))
	for _, c := range challenges {
		if c != nil && m.match(c) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Slug < matched[j].Slug
	})
	return matched
}

// Match reports whether a single challenge satisfies the filter.
func Match(c *domain.Challenge, filter domain.ChallengeFilter) bool {
	return newMatcher(filter).match(c)
}

type matcher struct {
	difficulties map[domain.Difficulty]struct{}
	languages    map[string]struct{}
	tags         map[string]struct{}
	query        string
}

func newMatcher(filter domain.ChallengeFilter) matcher {
	m := matcher{query: strings.ToLower(strings.TrimSpace(filter.Query))}
	if len(filter.Difficulties) > 0 {
		m.difficulties = make(map[domain.Difficulty]struct{}, len(filter.Difficulties))
		for _, d := range filter.Difficulties {
			m.difficulties[domain.Difficulty(strings.ToLower(string(d)))] = struct{}{}
		}
	}
	m.languages = keySet(filter.Languages, languageKey)
	m.tags = keySet(filter.Tags, tagKey)
	return m
}

func (m matcher) match(c *domain.Challenge) bool {
	if m.difficulties != nil {
		if _, ok := m.difficulties[domain.Difficulty(strings.ToLower(string(c.Difficulty)))]; !ok {
			return false
		}
	}
	if m.languages != nil && !intersects(m.languages, c.Languages, languageKey) {
		return false
	}
	if m.tags != nil && !intersects(m.tags, c.Tags, tagKey) {
		return false
	}
	if m.query != "" &&
		!strings.Contains(strings.ToLower(c.Title), m.query) &&
		!strings.Contains(strings.ToLower(c.Description), m.query) {
		return false
	}
	return true
}

// tagSymbols spells out symbols slug.Make would drop, keeping "C++" and "C#" apart.
var tagSymbols = map[string]string{
	"+": " plus ",
	"#": " sharp ",
}

// tagKey folds case, spacing and punctuation: "Dynamic Programming" and
// "dynamic-programming" share a key.
func tagKey(s string) string {
	return slug.Make(slug.Substitute(s, tagSymbols))
}

func languageKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// keySet returns nil when no usable value is given so the constraint is skipped.
func keySet(values []string, key func(string) string) map[string]struct{} {
	var set map[string]struct{}
	for _, v := range values {
		k := key(v)
		if k == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(values))
		}
		set[k] = struct{}{}
	}
	return set
}

func intersects(set map[string]struct{}, values []string, key func(string) string) bool {
	for _, v := range values {
		if _, ok := set[key(v)]; ok {
			return true
		}
	}
	return false
}
