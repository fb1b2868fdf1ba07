package config

import (
	"fmt"
	"strings"
	"time"
)

// LanguageRuntime is the sandbox runtime a platform language identifier maps to.
type LanguageRuntime struct {
	Language string
	Version  string
	FileName string
}

// DefaultLanguages are runtimes available on a stock Piston installation.
var DefaultLanguages = map[string]LanguageRuntime{
	"python":     {Language: "python", Version: "3.10.0", FileName: "main.py"},
	"javascript": {Language: "javascript", Version: "18.15.0", FileName: "main.js"},
	"typescript": {Language: "typescript", Version: "5.0.3", FileName: "main.ts"},
	"java":       {Language: "java", Version: "15.0.2", FileName: "Main.java"},
	"cpp":        {Language: "c++", Version: "10.2.0", FileName: "main.cpp"},
	"c":          {Language: "c", Version: "10.2.0", FileName: "main.c"},
	"go":         {Language: "go", Version: "1.16.2", FileName: "main.go"},
	"rust":       {Language: "rust", Version: "1.68.2", FileName: "main.rs"},
}

type SandboxCfg struct {
	BaseURL string
	APIKey  string

	// MaxConcurrency is the process-wide ceiling of outstanding sandbox calls.
	MaxConcurrency int
	// RequestsPerSecond throttles call starts, 0 disables throttling.
	RequestsPerSecond float64
	RequestBurst      int

	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// BackoffJitter is the randomization factor applied to each backoff interval.
	BackoffJitter float64

	// CallOverhead is added to the program time limit to form the hard
	// deadline of one sandbox call (queueing, compilation, transfer).
	CallOverhead       time.Duration
	DefaultTimeLimit   time.Duration
	DefaultMemoryLimit int
	CompileTimeout     time.Duration

	Languages map[string]LanguageRuntime
	// LanguagesErr is set when SANDBOX_LANGUAGES could not be parsed; the
	// defaults are used in that case.
	LanguagesErr error
}

func NewSandboxCfg() *SandboxCfg {
	cfg := &SandboxCfg{
		BaseURL:            getEnv("SANDBOX_URL", "http://localhost:2000"),
		APIKey:             getEnv("SANDBOX_API_KEY", ""),
		MaxConcurrency:     getEnvAsInt("SANDBOX_MAX_CONCURRENCY", 8),
		RequestsPerSecond:  getEnvAsFloat("SANDBOX_REQUESTS_PER_SECOND", 0),
		RequestBurst:       getEnvAsInt("SANDBOX_REQUEST_BURST", 1),
		MaxAttempts:        getEnvAsInt("SANDBOX_MAX_ATTEMPTS", 3),
		InitialBackoff:     getEnvAsDuration("SANDBOX_INITIAL_BACKOFF", 200*time.Millisecond),
		MaxBackoff:         getEnvAsDuration("SANDBOX_MAX_BACKOFF", 3*time.Second),
		BackoffJitter:      getEnvAsFloat("SANDBOX_BACKOFF_JITTER", 0.5),
		CallOverhead:       getEnvAsDuration("SANDBOX_CALL_OVERHEAD", 10*time.Second),
		DefaultTimeLimit:   getEnvAsDuration("SANDBOX_DEFAULT_TIME_LIMIT", 3*time.Second),
		DefaultMemoryLimit: getEnvAsInt("SANDBOX_DEFAULT_MEMORY_LIMIT_MB", 256),
		CompileTimeout:     getEnvAsDuration("SANDBOX_COMPILE_TIMEOUT", 10*time.Second),
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	languages, err := ParseLanguages(getEnv("SANDBOX_LANGUAGES", ""), DefaultLanguages)
	if err != nil {
		cfg.LanguagesErr = err
		languages, _ = ParseLanguages("", DefaultLanguages)
	}
	cfg.Languages = languages
	return cfg
}

// ParseLanguages merges a comma separated list of
// "id=language:version[:file]" entries over base. An empty version entry
// ("id=") removes the language.
func ParseLanguages(entries string, base map[string]LanguageRuntime) (map[string]LanguageRuntime, error) {
	languages := make(map[string]LanguageRuntime, len(base))
	for id, rt := range base {
		languages[id] = rt
	}
	if strings.TrimSpace(entries) == "" {
		return languages, nil
	}

	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id = strings.ToLower(strings.TrimSpace(id))
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid language entry %q", entry)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			delete(languages, id)
			continue
		}
		parts := strings.Split(value, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid runtime %q for language %q", value, id)
		}
		rt := LanguageRuntime{Language: parts[0], Version: parts[1]}
		if len(parts) == 3 {
			rt.FileName = parts[2]
		} else if prev, exists := languages[id]; exists {
			rt.FileName = prev.FileName
		}
		languages[id] = rt
	}
	return languages, nil
}
