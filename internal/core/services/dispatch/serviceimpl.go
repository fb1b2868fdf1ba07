package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ IDispatcher = (*Dispatcher)(nil)

const (
	outcomeSuccess             = "success"
	outcomeUnsupportedLanguage = "unsupported_language"
	outcomeTimeout             = "timeout"
	outcomeSandboxUnavailable  = "sandbox_unavailable"
	outcomeRejected            = "rejected"
	outcomeCancelled           = "cancelled"
)

// Dispatcher implements IDispatcher. The semaphore and the rate limiter are
// shared by every caller in the process.
type Dispatcher struct {
	executor  secondary.CodeExecutor
	languages *LanguageTable
	slots     *semaphore.Weighted
	limiter   *rate.Limiter
	cfg       *config.SandboxCfg
	logger    primary.Logger
	metrics   secondary.MetricsRecorder
}

type Option func(*Dispatcher)

// WithMetrics records every Execute call
func WithMetrics(recorder secondary.MetricsRecorder) Option {
	return func(d *Dispatcher) {
		d.metrics = recorder
	}
}

// NewDispatcher creates a dispatcher over a sandbox executor
func NewDispatcher(executor secondary.CodeExecutor, cfg *config.SandboxCfg, logger primary.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		executor:  executor,
		languages: NewLanguageTable(cfg.Languages),
		slots:     semaphore.NewWeighted(int64(max(cfg.MaxConcurrency, 1))),
		cfg:       cfg,
		logger:    logger,
	}
	if cfg.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.RequestBurst, 1))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) SupportedLanguages() []string {
	return d.languages.Languages()
}

// Execute runs the request on the sandbox
func (d *Dispatcher) Execute(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	start := time.Now()

	runtime, ok := d.languages.Resolve(req.Language, req.Version)
	if !ok {
		d.observe(req.Language, outcomeUnsupportedLanguage, 0, start)
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, req.Language)
	}

	call := d.withDefaults(req)
	deadline := call.TimeLimit + d.cfg.CallOverhead

	var (
		result   *domain.ExecutionResult
		attempts int
	)
	operation := func() error {
		attempts++
		res, err := d.attempt(ctx, runtime, call, deadline)
		if err == nil {
			result = res
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		if errors.Is(err, domain.ErrSandboxTransient) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Warn("Retrying sandbox call",
			"language", req.Language,
			"attempt", attempts,
			"backoff", wait,
			"error", err)
	}

	err := backoff.RetryNotify(operation, d.retryPolicy(ctx), notify)
	if err == nil {
		d.observe(req.Language, outcomeSuccess, attempts, start)
		return result, nil
	}

	switch {
	case errors.Is(err, domain.ErrSandboxTransient):
		d.logger.Error("Sandbox unavailable", "language", req.Language, "attempts", attempts, "error", err)
		d.observe(req.Language, outcomeSandboxUnavailable, attempts, start)
		return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrSandboxUnavailable, attempts, err)
	case errors.Is(err, domain.ErrTimeout):
		d.observe(req.Language, outcomeTimeout, attempts, start)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.observe(req.Language, outcomeCancelled, attempts, start)
	default:
		d.logger.Error("Sandbox call failed", "language", req.Language, "error", err)
		d.observe(req.Language, outcomeRejected, attempts, start)
	}
	return nil, err
}

// attempt performs one remote call while holding a concurrency slot.
func (d *Dispatcher) attempt(ctx context.Context, runtime domain.Runtime, req *domain.ExecutionRequest, deadline time.Duration) (*domain.ExecutionResult, error) {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.slots.Release(1)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrSandboxTransient, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res, err := d.executor.Run(callCtx, runtime, req)
	if err == nil {
		return res, nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: no sandbox response within %s", domain.ErrTimeout, deadline)
	}
	return nil, err
}

func (d *Dispatcher) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.cfg.InitialBackoff
	exp.MaxInterval = d.cfg.MaxBackoff
	exp.RandomizationFactor = d.cfg.BackoffJitter
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := d.cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (d *Dispatcher) withDefaults(req *domain.ExecutionRequest) *domain.ExecutionRequest {
	call := *req
	if call.TimeLimit <= 0 {
		call.TimeLimit = d.cfg.DefaultTimeLimit
	}
	if call.MemoryLimitMB <= 0 {
		call.MemoryLimitMB = d.cfg.DefaultMemoryLimit
	}
	return &call
}

func (d *Dispatcher) observe(language, outcome string, attempts int, start time.Time) {
	if d.metrics != nil {
		d.metrics.ObserveDispatch(language, outcome, attempts, time.Since(start))
	}
}
