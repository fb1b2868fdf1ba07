package challenges

import (
	"gitlab.com/toku-assess.net/internal/domain"
)

// ChallengeSummary is a catalog entry without test cases
type ChallengeSummary struct {
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	Languages     []string          `json:"languages"`
	Tags          []string          `json:"tags"`
	TimeLimitMs   int64             `json:"time_limit_ms"`
	MemoryLimitMB int               `json:"memory_limit_mb"`
}

// ChallengeDetail shows sample cases in full and only counts hidden ones
type ChallengeDetail struct {
	ChallengeSummary
	Description     string            `json:"description"`
	SampleCases     []domain.TestCase `json:"sample_cases"`
	HiddenCaseCount int               `json:"hidden_case_count"`
}

func toSummary(c *domain.Challenge) ChallengeSummary {
	return ChallengeSummary{
		Slug:          c.Slug,
		Title:         c.Title,
		Difficulty:    c.Difficulty,
		Languages:     nonNil(c.Languages),
		Tags:          nonNil(c.Tags),
		TimeLimitMs:   c.TimeLimit.Milliseconds(),
		MemoryLimitMB: c.MemoryLimitMB,
	}
}

func toDetail(c *domain.Challenge) ChallengeDetail {
	d := ChallengeDetail{
		ChallengeSummary: toSummary(c),
		Description:      c.Description,
		SampleCases:      []domain.TestCase{},
	}
	for _, tc := range c.TestCases {
		if tc.Hidden {
			d.HiddenCaseCount++
			continue
		}
		d.SampleCases = append(d.SampleCases, tc)
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
