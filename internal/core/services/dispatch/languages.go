package dispatch

import (
	"sort"
	"strings"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/domain"
)

// LanguageTable maps platform language identifiers to sandbox runtimes.
type LanguageTable struct {
	runtimes map[string]domain.Runtime
}

func NewLanguageTable(languages map[string]config.LanguageRuntime) *LanguageTable {
	runtimes := make(map[string]domain.Runtime, len(languages))
	for id, rt := range languages {
		fileName := rt.FileName
		if fileName == "" {
			fileName = "main"
		}
		runtimes[strings.ToLower(strings.TrimSpace(id))] = domain.Runtime{
			Language: rt.Language,
			Version:  rt.Version,
			FileName: fileName,
		}
	}
	return &LanguageTable{runtimes: runtimes}
}

// Resolve returns the runtime for a platform language. A non-empty version
// overrides the configured one.
func (t *LanguageTable) Resolve(language, version string) (domain.Runtime, bool) {
	rt, ok := t.runtimes[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return domain.Runtime{}, false
	}
	if version != "" {
		rt.Version = version
	}
	return rt, true
}

func (t *LanguageTable) Languages() []string {
	ids := make([]string, 0, len(t.runtimes))
	for id := range t.runtimes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
