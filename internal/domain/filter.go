package domain

import "strings"

// ChallengeFilter is a catalog query. Empty fields do not constrain.
type ChallengeFilter struct {
	Difficulties []Difficulty
	Languages    []string
	Tags         []string
	Query        string
}

func (f ChallengeFilter) IsEmpty() bool {
	return len(f.Difficulties) == 0 &&
		len(f.Languages) == 0 &&
		len(f.Tags) == 0 &&
		strings.TrimSpace(f.Query) == ""
}
