package domain

import "time"

// ExitStatus is the classified outcome of one sandbox run.
type ExitStatus string

const (
	ExitSuccess            ExitStatus = "success"
	ExitCompileError       ExitStatus = "compile-error"
	ExitRuntimeError       ExitStatus = "runtime-error"
	ExitTimeout            ExitStatus = "timeout"
	ExitSandboxUnavailable ExitStatus = "sandbox-unavailable"
)

// ExecutionRequest describes a single program run. Language is the platform
// identifier, Version optionally pins the sandbox version.
type ExecutionRequest struct {
	Language      string
	Version       string
	Source        string
	Stdin         string
	TimeLimit     time.Duration
	MemoryLimitMB int
}

// Runtime is the sandbox language/version pair a platform language maps to.
type Runtime struct {
	Language string
	Version  string
	FileName string
}

// ExecutionResult is the captured output of one sandbox run.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Status   ExitStatus    `json:"status"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}
