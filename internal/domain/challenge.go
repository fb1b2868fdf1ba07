package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the ordered difficulty level of a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank orders difficulties from easiest to hardest. Unknown values rank 0.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

func (d Difficulty) Valid() bool {
	return d.Rank() > 0
}

// ParseDifficulty accepts any casing and surrounding whitespace.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Challenge is a published coding problem. Slug is its stable identity.
type Challenge struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Difficulty    Difficulty    `json:"difficulty"`
	Languages     []string      `json:"languages"`
	Tags          []string      `json:"tags"`
	TimeLimit     time.Duration `json:"time_limit"`
	MemoryLimitMB int           `json:"memory_limit_mb"`
	TestCases     []TestCase    `json:"test_cases,omitempty"`
}

// SupportsLanguage reports whether language is one of the challenge languages.
func (c *Challenge) SupportsLanguage(language string) bool {
	for _, l := range c.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// TestCase is one graded (stdin, expected stdout) pair of a challenge.
type TestCase struct {
	ID             string `json:"id"`
	Position       int    `json:"position"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
}
