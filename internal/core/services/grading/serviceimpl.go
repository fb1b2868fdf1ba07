package grading

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/core/services/dispatch"
	"gitlab.com/toku-assess.net/internal/core/services/validator"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ IGradingService = (*GradingService)(nil)

const (
	cancelledMessage      = "grading cancelled before the case finished"
	defaultPersistTimeout = 5 * time.Second
)

// GradingService implements IGradingService
type GradingService struct {
	dispatcher dispatch.IDispatcher
	verdicts   secondary.VerdictStore
	validator  validator.Validator
	cfg        *config.GradingCfg
	logger     primary.Logger
	metrics    secondary.MetricsRecorder
	now        func() time.Time
}

type Option func(*GradingService)

func WithMetrics(recorder secondary.MetricsRecorder) Option {
	return func(s *GradingService) {
		s.metrics = recorder
	}
}

// NewGradingService creates a new grading service
func NewGradingService(
	dispatcher dispatch.IDispatcher,
	verdicts secondary.VerdictStore,
	outputValidator validator.Validator,
	cfg *config.GradingCfg,
	logger primary.Logger,
	opts ...Option,
) *GradingService {
	s := &GradingService{
		dispatcher: dispatcher,
		verdicts:   verdicts,
		validator:  outputValidator,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grade runs the challenge test cases for the submission
func (s *GradingService) Grade(ctx context.Context, submission *domain.Submission, challenge *domain.Challenge) (*domain.SubmissionResult, error) {
	if submission == nil || challenge == nil {
		return nil, fmt.Errorf("%w: submission and challenge are required", domain.ErrInvalidSubmission)
	}
	if len(challenge.TestCases) == 0 {
		return nil, fmt.Errorf("%w: %s has no test cases", domain.ErrInvalidChallenge, challenge.Slug)
	}

	start := time.Now()
	log := s.logger.With("submissionId", submission.ID, "challenge", challenge.Slug, "language", submission.Language)
	cases := orderedCases(challenge.TestCases)

	result := &domain.SubmissionResult{
		SubmissionID:  submission.ID,
		ChallengeSlug: challenge.Slug,
		LearnerID:     submission.LearnerID,
		Language:      submission.Language,
		Verdicts:      []domain.CaseVerdict{},
		Total:         len(cases),
	}

	if !challenge.SupportsLanguage(submission.Language) {
		log.Info("Language not supported by challenge, skipping execution")
		return s.finish(result, start, log), nil
	}

	key := attemptKey(submission)
	stored, err := s.verdicts.GetCaseVerdicts(ctx, key)
	if err != nil {
		log.Error("Failed to load stored verdicts", "error", err)
		return nil, fmt.Errorf("failed to load stored verdicts: %w", err)
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	verdicts := make([]domain.CaseVerdict, len(cases))
	done := make([]bool, len(cases))
	reused := 0
	for i, tc := range cases {
		if v, ok := stored[tc.ID]; ok && v.IsTerminal() {
			v.Position = tc.Position
			v.Hidden = tc.Hidden
			verdicts[i] = v
			done[i] = true
			reused++
		}
	}

	var g errgroup.Group
	g.SetLimit(max(s.cfg.Workers, 1))
	for i := range cases {
		if done[i] {
			continue
		}
		if runCtx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			v := s.gradeCase(runCtx, submission, challenge, cases[i])
			if v.IsTerminal() {
				s.saveVerdict(ctx, key, v, log)
			}
			verdicts[i] = v
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, tc := range cases {
		if !done[i] {
			v := newVerdict(tc)
			v.Reason = domain.ReasonInfrastructure
			v.Message = cancelledMessage
			verdicts[i] = v
		}
	}

	if reused > 0 {
		log.Info("Reused stored verdicts", "reused", reused, "total", len(cases))
	}
	result.Verdicts = verdicts
	return s.finish(result, start, log), nil
}

func (s *GradingService) gradeCase(ctx context.Context, submission *domain.Submission, challenge *domain.Challenge, tc domain.TestCase) domain.CaseVerdict {
	res, err := s.dispatcher.Execute(ctx, &domain.ExecutionRequest{
		Language:      submission.Language,
		Source:        submission.Source,
		Stdin:         tc.Input,
		TimeLimit:     challenge.TimeLimit,
		MemoryLimitMB: challenge.MemoryLimitMB,
	})
	if err != nil {
		return verdictFromError(tc, err)
	}
	return verdictFromResult(tc, res, s.validator.Validate)
}

// saveVerdict stores a finished verdict even when the run context has
// already been cancelled.
func (s *GradingService) saveVerdict(ctx context.Context, key string, v domain.CaseVerdict, log primary.Logger) {
	timeout := s.cfg.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.verdicts.SaveCaseVerdict(saveCtx, key, v); err != nil {
		log.Warn("Failed to store case verdict", "testCaseId", v.TestCaseID, "error", err)
	}
}

func (s *GradingService) finish(result *domain.SubmissionResult, start time.Time, log primary.Logger) *domain.SubmissionResult {
	result.Passed, result.Score, result.Status = Summarize(result.Verdicts, result.Total)
	result.GradedAt = s.now().UTC()

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveGrade(string(result.Status), result.Total, elapsed)
	}
	log.Info("Submission graded",
		"status", result.Status,
		"passed", result.Passed,
		"total", result.Total,
		"elapsed", elapsed)
	return result
}

// attemptKey scopes stored verdicts to one attempt: the submission id plus a
// digest of learner, challenge, language and source. Another learner reusing
// the id, or the same learner sending different code, starts from nothing.
func attemptKey(submission *domain.Submission) string {
	h := sha256.New()
	for _, part := range []string{
		submission.LearnerID,
		submission.ChallengeSlug,
		strings.ToLower(submission.Language),
		submission.Source,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return submission.ID + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// orderedCases copies the cases sorted by position, keeping input order for ties.
func orderedCases(cases []domain.TestCase) []domain.TestCase {
	ordered := make([]domain.TestCase, len(cases))
	copy(ordered, cases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}
