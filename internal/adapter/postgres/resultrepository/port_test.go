package resultrepository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"gitlab.com/toku-assess.net/internal/adapter/logging"
	"gitlab.com/toku-assess.net/internal/domain"
)

var verdictCols = []string{"test_case_id", "position", "passed", "reason", "output", "message", "is_hidden", "duration_ms"}

func newMockRepo(t *testing.T) (*ResultRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewResultRepository(sqlx.NewDb(db, "postgres"), logging.NewNopLogger()), mock
}

func sampleResult() *domain.SubmissionResult {
	return &domain.SubmissionResult{
		SubmissionID:  "sub-1",
		ChallengeSlug: "two-sum",
		LearnerID:     "learner-1",
		Language:      "python",
		Verdicts: []domain.CaseVerdict{
			{TestCaseID: "tc-1", Position: 1, Passed: true, Reason: domain.ReasonNone, Output: "3", Duration: 12 * time.Millisecond},
			{TestCaseID: "tc-2", Position: 2, Reason: domain.ReasonWrongAnswer, Output: "9", Hidden: true},
		},
		Passed:   1,
		Total:    2,
		Score:    0.5,
		Status:   domain.StatusPartiallyAccepted,
		GradedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaveResultCommitsResultAndVerdicts(t *testing.T) {
	repo, mock := newMockRepo(t)
	res := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO submission_results`).
		WithArgs("sub-1", "two-sum", "learner-1", "python", 1, 2, 0.5, "partially-accepted", res.GradedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_verdicts`).
		WithArgs("sub-1", "tc-1", 1, true, "none", "3", "", false, int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_verdicts`).
		WithArgs("sub-1", "tc-2", 2, false, "wrong-answer", "9", "", true, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveResult(context.Background(), res); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveResultRollsBackOnVerdictFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO submission_results`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_verdicts`).WillReturnError(boom)
	mock.ExpectRollback()

	if err := repo.SaveResult(context.Background(), sampleResult()); !errors.Is(err, boom) {
		t.Errorf("SaveResult() error = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveResultRefusesAnotherOwnersSubmission(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO submission_results .* WHERE submission_results.learner_id = EXCLUDED.learner_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.SaveResult(context.Background(), sampleResult()); !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Errorf("SaveResult() error = %v, want ErrInvalidSubmission", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetResult(t *testing.T) {
	repo, mock := newMockRepo(t)
	gradedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM submission_results\s+WHERE submission_id = \$1`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"submission_id", "challenge_slug", "learner_id", "language", "passed", "total", "score", "status", "graded_at"}).
			AddRow("sub-1", "two-sum", "learner-1", "python", 2, 2, 1.0, "accepted", gradedAt))
	mock.ExpectQuery(`FROM case_verdicts`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows(verdictCols).
			AddRow("tc-1", 1, true, "none", "3", "", false, 5).
			AddRow("tc-2", 2, true, "none", "10", "", true, 7))

	got, err := repo.GetResult(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if got.Status != domain.StatusAccepted || got.Score != 1.0 || !got.GradedAt.Equal(gradedAt) {
		t.Errorf("GetResult() = %+v", got)
	}
	if len(got.Verdicts) != 2 || got.Verdicts[1].Duration != 7*time.Millisecond || !got.Verdicts[1].Hidden {
		t.Errorf("verdicts = %+v", got.Verdicts)
	}
}

func TestGetResultMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM submission_results`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"submission_id"}))

	got, err := repo.GetResult(context.Background(), "missing")
	if err != nil || got != nil {
		t.Errorf("GetResult() = %v, %v; want nil, nil", got, err)
	}
}

func TestCaseVerdictRoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	v := domain.CaseVerdict{TestCaseID: "tc-3", Position: 3, Reason: domain.ReasonTimeout, Message: "time limit exceeded", Duration: 2 * time.Second}

	mock.ExpectExec(`INSERT INTO case_verdicts`).
		WithArgs("sub-2", "tc-3", 3, false, "timeout", "", "time limit exceeded", false, int64(2000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM case_verdicts\s+WHERE submission_id = \$1`).
		WithArgs("sub-2").
		WillReturnRows(sqlmock.NewRows(verdictCols).
			AddRow("tc-3", 3, false, "timeout", "", "time limit exceeded", false, 2000))

	if err := repo.SaveCaseVerdict(context.Background(), "sub-2", v); err != nil {
		t.Fatalf("SaveCaseVerdict() error = %v", err)
	}
	got, err := repo.GetCaseVerdicts(context.Background(), "sub-2")
	if err != nil {
		t.Fatalf("GetCaseVerdicts() error = %v", err)
	}
	if got["tc-3"] != v {
		t.Errorf("GetCaseVerdicts()[tc-3] = %+v, want %+v", got["tc-3"], v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
