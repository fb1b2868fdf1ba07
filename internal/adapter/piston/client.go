// Package piston talks to a Piston compatible code execution API.
package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ secondary.CodeExecutor = (*Client)(nil)

const (
	executePath = "/api/v2/execute"

	statusTimeout       = "TO"
	statusInternalError = "XX"
	signalKill          = "SIGKILL"

	maxErrorBody = 4 << 10
)

type file struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type executeRequest struct {
	Language       string `json:"language"`
	Version        string `json:"version"`
	Files          []file `json:"files"`
	Stdin          string `json:"stdin"`
	CompileTimeout int64  `json:"compile_timeout,omitempty"`
	RunTimeout     int64  `json:"run_timeout,omitempty"`
	RunMemoryLimit int64  `json:"run_memory_limit,omitempty"`
}

type stage struct {
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	Output   string  `json:"output"`
	Code     *int    `json:"code"`
	Signal   *string `json:"signal"`
	Status   *string `json:"status"`
	Message  *string `json:"message"`
	WallTime *int64  `json:"wall_time"`
}

type executeResponse struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      *stage `json:"run"`
	Compile  *stage `json:"compile"`
	Message  string `json:"message"`
}

// Client implements secondary.CodeExecutor over HTTP
type Client struct {
	baseURL        string
	apiKey         string
	compileTimeout time.Duration
	httpClient     *http.Client
	logger         primary.Logger
}

// NewClient creates a sandbox client. Deadlines come from the caller context,
// the http.Client itself has no timeout.
func NewClient(cfg *config.SandboxCfg, httpClient *http.Client, logger primary.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		compileTimeout: cfg.CompileTimeout,
		httpClient:     httpClient,
		logger:         logger,
	}
}

// Run executes one program on the sandbox
func (c *Client) Run(ctx context.Context, runtime domain.Runtime, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	body, err := json.Marshal(executeRequest{
		Language:       runtime.Language,
		Version:        runtime.Version,
		Files:          []file{{Name: runtime.FileName, Content: req.Source}},
		Stdin:          req.Stdin,
		CompileTimeout: c.compileTimeout.Milliseconds(),
		RunTimeout:     req.TimeLimit.Milliseconds(),
		RunMemoryLimit: int64(req.MemoryLimitMB) * 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+executePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSandboxTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Sandbox returned error status",
			"status", resp.StatusCode,
			"language", runtime.Language,
			"body", strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d", domain.ErrSandboxTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrSandboxRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: undecodable response: %v", domain.ErrSandboxTransient, err)
	}
	return toResult(&out, time.Since(start))
}

func toResult(out *executeResponse, elapsed time.Duration) (*domain.ExecutionResult, error) {
	if out.Compile != nil && out.Compile.failed() {
		return &domain.ExecutionResult{
			Stdout:   out.Compile.Stdout,
			Stderr:   firstNonEmpty(out.Compile.Stderr, out.Compile.Output, out.Compile.message()),
			Status:   domain.ExitCompileError,
			ExitCode: out.Compile.code(),
			Duration: out.Compile.duration(elapsed),
		}, nil
	}
	if out.Run == nil {
		return nil, fmt.Errorf("%w: response has no run stage: %s", domain.ErrSandboxTransient, out.Message)
	}

	run := out.Run
	res := &domain.ExecutionResult{
		Stdout:   run.Stdout,
		Stderr:   run.Stderr,
		ExitCode: run.code(),
		Duration: run.duration(elapsed),
	}

	switch status := run.status(); {
	case status == statusInternalError:
		return nil, fmt.Errorf("%w: sandbox internal error: %s", domain.ErrSandboxTransient, run.message())
	case status == statusTimeout, status == "" && run.signal() == signalKill:
		res.Status = domain.ExitTimeout
	case status != "", run.signal() != "", run.code() != 0:
		res.Status = domain.ExitRuntimeError
		if res.Stderr == "" {
			res.Stderr = run.message()
		}
	default:
		res.Status = domain.ExitSuccess
	}
	return res, nil
}

func (s *stage) failed() bool {
	return s.code() != 0 || s.signal() != "" || s.status() != ""
}

func (s *stage) code() int {
	if s.Code == nil {
		return 0
	}
	return *s.Code
}

func (s *stage) signal() string {
	if s.Signal == nil {
		return ""
	}
	return *s.Signal
}

func (s *stage) status() string {
	if s.Status == nil {
		return ""
	}
	return *s.Status
}

func (s *stage) message() string {
	if s.Message == nil {
		return ""
	}
	return *s.Message
}

func (s *stage) duration(fallback time.Duration) time.Duration {
	if s.WallTime == nil {
		return fallback
	}
	return time.Duration(*s.WallTime) * time.Millisecond
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
