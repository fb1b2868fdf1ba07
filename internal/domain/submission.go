package domain

import "time"

// Submission is one learner attempt at a challenge. ID identifies the attempt,
// grading the same ID twice is a retry of the same attempt.
type Submission struct {
	ID            string
	LearnerID     string
	ChallengeSlug string
	Language      string
	Source        string
}

// FailureReason explains why a case did not pass.
type FailureReason string

const (
	ReasonNone                FailureReason = "none"
	ReasonWrongAnswer         FailureReason = "wrong-answer"
	ReasonCompileError        FailureReason = "compile-error"
	ReasonRuntimeError        FailureReason = "runtime-error"
	ReasonTimeout             FailureReason = "timeout"
	ReasonInfrastructure      FailureReason = "infrastructure"
	ReasonUnsupportedLanguage FailureReason = "unsupported-language"
)

// IsInfrastructure is true when the learner code was never meaningfully evaluated.
func (r FailureReason) IsInfrastructure() bool {
	return r == ReasonInfrastructure || r == ReasonUnsupportedLanguage
}

// CaseVerdict is the pass/fail decision for one test case.
type CaseVerdict struct {
	TestCaseID string        `json:"test_case_id"`
	Position   int           `json:"position"`
	Passed     bool          `json:"passed"`
	Reason     FailureReason `json:"reason"`
	Output     string        `json:"output"`
	Message    string        `json:"message,omitempty"`
	Hidden     bool          `json:"hidden"`
	Duration   time.Duration `json:"duration"`
}

// IsTerminal reports whether the verdict can be reused when the same
// submission is graded again. Cases that were never evaluated are always
// dispatched again.
func (v CaseVerdict) IsTerminal() bool {
	return !v.Reason.IsInfrastructure()
}

type SubmissionStatus string

const (
	StatusAccepted          SubmissionStatus = "accepted"
	StatusPartiallyAccepted SubmissionStatus = "partially-accepted"
	StatusRejected          SubmissionStatus = "rejected"
	StatusErrored           SubmissionStatus = "errored"
)

// SubmissionResult is the graded outcome of a submission. Verdicts are in
// test case order.
type SubmissionResult struct {
	SubmissionID  string           `json:"submission_id"`
	ChallengeSlug string           `json:"challenge_slug"`
	LearnerID     string           `json:"learner_id,omitempty"`
	Language      string           `json:"language"`
	Verdicts      []CaseVerdict    `json:"verdicts"`
	Passed        int              `json:"passed"`
	Total         int              `json:"total"`
	Score         float64          `json:"score"`
	Status        SubmissionStatus `json:"status"`
	GradedAt      time.Time        `json:"graded_at"`
}
