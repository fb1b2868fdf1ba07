// Package resultrepository stores graded submissions and their case verdicts in PostgreSQL
package resultrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var (
	_ secondary.ResultRepository = (*ResultRepository)(nil)
	_ secondary.VerdictStore     = (*ResultRepository)(nil)
)

const upsertVerdict = `
	INSERT INTO case_verdicts (
		submission_id, test_case_id, position, passed, reason,
		output, message, is_hidden, duration_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (submission_id, test_case_id) DO UPDATE SET
		position = EXCLUDED.position,
		passed = EXCLUDED.passed,
		reason = EXCLUDED.reason,
		output = EXCLUDED.output,
		message = EXCLUDED.message,
		is_hidden = EXCLUDED.is_hidden,
		duration_ms = EXCLUDED.duration_ms`

const selectVerdicts = `
	SELECT test_case_id, position, passed, reason, output, message, is_hidden, duration_ms
	FROM case_verdicts
	WHERE submission_id = $1
	ORDER BY position, test_case_id`

type resultRow struct {
	SubmissionID  string    `db:"submission_id"`
	ChallengeSlug string    `db:"challenge_slug"`
	LearnerID     string    `db:"learner_id"`
	Language      string    `db:"language"`
	Passed        int       `db:"passed"`
	Total         int       `db:"total"`
	Score         float64   `db:"score"`
	Status        string    `db:"status"`
	GradedAt      time.Time `db:"graded_at"`
}

type verdictRow struct {
	TestCaseID string `db:"test_case_id"`
	Position   int    `db:"position"`
	Passed     bool   `db:"passed"`
	Reason     string `db:"reason"`
	Output     string `db:"output"`
	Message    string `db:"message"`
	Hidden     bool   `db:"is_hidden"`
	DurationMs int64  `db:"duration_ms"`
}

func (v verdictRow) toDomain() domain.CaseVerdict {
	return domain.CaseVerdict{
		TestCaseID: v.TestCaseID,
		Position:   v.Position,
		Passed:     v.Passed,
		Reason:     domain.FailureReason(v.Reason),
		Output:     v.Output,
		Message:    v.Message,
		Hidden:     v.Hidden,
		Duration:   time.Duration(v.DurationMs) * time.Millisecond,
	}
}

// ResultRepository implements secondary.ResultRepository and secondary.VerdictStore with PostgreSQL
type ResultRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB, logger primary.Logger) *ResultRepository {
	return &ResultRepository{
		db:     db,
		logger: logger,
	}
}

// SaveResult writes the result row and every verdict in one transaction
func (r *ResultRepository) SaveResult(ctx context.Context, result *domain.SubmissionResult) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO submission_results (
			submission_id, challenge_slug, learner_id, language,
			passed, total, score, status, graded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (submission_id) DO UPDATE SET
			passed = EXCLUDED.passed,
			total = EXCLUDED.total,
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			graded_at = EXCLUDED.graded_at
		WHERE submission_results.learner_id = EXCLUDED.learner_id
			AND submission_results.challenge_slug = EXCLUDED.challenge_slug`

	res, err := tx.ExecContext(ctx, query,
		result.SubmissionID,
		result.ChallengeSlug,
		result.LearnerID,
		result.Language,
		result.Passed,
		result.Total,
		result.Score,
		string(result.Status),
		result.GradedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save submission result", "submission_id", result.SubmissionID, "error", err)
		return fmt.Errorf("failed to save submission result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: submission id %s belongs to another attempt", domain.ErrInvalidSubmission, result.SubmissionID)
	}

	for _, v := range result.Verdicts {
		if err = execVerdict(ctx, tx, result.SubmissionID, v); err != nil {
			r.logger.Error("Failed to save case verdict", "submission_id", result.SubmissionID, "test_case_id", v.TestCaseID, "error", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission result: %w", err)
	}
	return nil
}

// GetResult loads a stored result with its verdicts, nil when absent
func (r *ResultRepository) GetResult(ctx context.Context, submissionID string) (*domain.SubmissionResult, error) {
	query := `
		SELECT submission_id, challenge_slug, learner_id, language,
			   passed, total, score, status, graded_at
		FROM submission_results
		WHERE submission_id = $1`

	var row resultRow
	if err := r.db.GetContext(ctx, &row, query, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get submission result", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get submission result: %w", err)
	}

	var rows []verdictRow
	if err := r.db.SelectContext(ctx, &rows, selectVerdicts, submissionID); err != nil {
		return nil, fmt.Errorf("failed to get case verdicts: %w", err)
	}

	verdicts := make([]domain.CaseVerdict, 0, len(rows))
	for _, v := range rows {
		verdicts = append(verdicts, v.toDomain())
	}
	return &domain.SubmissionResult{
		SubmissionID:  row.SubmissionID,
		ChallengeSlug: row.ChallengeSlug,
		LearnerID:     row.LearnerID,
		Language:      row.Language,
		Verdicts:      verdicts,
		Passed:        row.Passed,
		Total:         row.Total,
		Score:         row.Score,
		Status:        domain.SubmissionStatus(row.Status),
		GradedAt:      row.GradedAt,
	}, nil
}

// GetCaseVerdicts returns the verdicts recorded so far for a submission
func (r *ResultRepository) GetCaseVerdicts(ctx context.Context, submissionID string) (map[string]domain.CaseVerdict, error) {
	var rows []verdictRow
	if err := r.db.SelectContext(ctx, &rows, selectVerdicts, submissionID); err != nil {
		r.logger.Error("Failed to get case verdicts", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get case verdicts: %w", err)
	}

	verdicts := make(map[string]domain.CaseVerdict, len(rows))
	for _, v := range rows {
		verdicts[v.TestCaseID] = v.toDomain()
	}
	return verdicts, nil
}

// SaveCaseVerdict upserts one verdict
func (r *ResultRepository) SaveCaseVerdict(ctx context.Context, submissionID string, verdict domain.CaseVerdict) error {
	if err := execVerdict(ctx, r.db, submissionID, verdict); err != nil {
		r.logger.Error("Failed to save case verdict", "submission_id", submissionID, "test_case_id", verdict.TestCaseID, "error", err)
		return err
	}
	return nil
}

func execVerdict(ctx context.Context, ex sqlx.ExecerContext, submissionID string, v domain.CaseVerdict) error {
	_, err := ex.ExecContext(ctx, upsertVerdict,
		submissionID,
		v.TestCaseID,
		v.Position,
		v.Passed,
		string(v.Reason),
		v.Output,
		v.Message,
		v.Hidden,
		v.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save case verdict: %w", err)
	}
	return nil
}
