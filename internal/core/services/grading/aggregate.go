package grading

import (
	"context"
	"errors"

	"gitlab.com/toku-assess.net/internal/domain"
)

// Summarize computes passed count, score and overall status of verdicts.
func Summarize(verdicts []domain.CaseVerdict, total int) (passed int, score float64, status domain.SubmissionStatus) {
	infrastructure := 0
	for _, v := range verdicts {
		switch {
		case v.Passed:
			passed++
		case v.Reason.IsInfrastructure():
			infrastructure++
		}
	}
	if total > 0 {
		score = float64(passed) / float64(total)
	}

	switch {
	case len(verdicts) == 0 || infrastructure == len(verdicts):
		status = domain.StatusErrored
	case passed == len(verdicts):
		status = domain.StatusAccepted
	case passed > 0:
		status = domain.StatusPartiallyAccepted
	default:
		status = domain.StatusRejected
	}
	return passed, score, status
}

// verdictFromError classifies a dispatcher failure.
func verdictFromError(tc domain.TestCase, err error) domain.CaseVerdict {
	v := newVerdict(tc)
	v.Message = err.Error()
	switch {
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		v.Reason = domain.ReasonUnsupportedLanguage
	case errors.Is(err, domain.ErrTimeout):
		v.Reason = domain.ReasonTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		v.Reason = domain.ReasonInfrastructure
		v.Message = cancelledMessage
	default:
		v.Reason = domain.ReasonInfrastructure
	}
	return v
}

// verdictFromResult classifies a completed run; output is compared only
// when the program exited cleanly.
func verdictFromResult(tc domain.TestCase, res *domain.ExecutionResult, validate func(actual, expected string) bool) domain.CaseVerdict {
	v := newVerdict(tc)
	v.Duration = res.Duration

	switch res.Status {
	case domain.ExitSuccess:
		v.Output = res.Stdout
		if validate(res.Stdout, tc.ExpectedOutput) {
			v.Passed = true
			v.Reason = domain.ReasonNone
		} else {
			v.Reason = domain.ReasonWrongAnswer
		}
	case domain.ExitCompileError:
		v.Reason = domain.ReasonCompileError
		v.Output = res.Stderr
	case domain.ExitRuntimeError:
		v.Reason = domain.ReasonRuntimeError
		v.Output = res.Stdout
		v.Message = res.Stderr
	case domain.ExitTimeout:
		v.Reason = domain.ReasonTimeout
		v.Output = res.Stdout
	default:
		v.Reason = domain.ReasonInfrastructure
		v.Message = res.Stderr
	}
	return v
}

func newVerdict(tc domain.TestCase) domain.CaseVerdict {
	return domain.CaseVerdict{
		TestCaseID: tc.ID,
		Position:   tc.Position,
		Hidden:     tc.Hidden,
	}
}
