// Package challengerepository reads published challenges from PostgreSQL
package challengerepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ secondary.ChallengeRepository = (*ChallengeRepository)(nil)

type challengeRow struct {
	Slug          string         `db:"slug"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Difficulty    string         `db:"difficulty"`
	Languages     pq.StringArray `db:"languages"`
	Tags          pq.StringArray `db:"tags"`
	TimeLimitMs   int64          `db:"time_limit_ms"`
	MemoryLimitMB int            `db:"memory_limit_mb"`
}

type testCaseRow struct {
	ID             string `db:"id"`
	Position       int    `db:"position"`
	Input          string `db:"input"`
	ExpectedOutput string `db:"expected_output"`
	Hidden         bool   `db:"is_hidden"`
}

const challengeColumns = `slug, title, description, difficulty, languages, tags, time_limit_ms, memory_limit_mb`

// ChallengeRepository implements secondary.ChallengeRepository with PostgreSQL
type ChallengeRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewChallengeRepository creates a new PostgreSQL challenge repository
func NewChallengeRepository(db *sqlx.DB, logger primary.Logger) *ChallengeRepository {
	return &ChallengeRepository{
		db:     db,
		logger: logger,
	}
}

// GetChallengeBySlug loads a published challenge and its test cases ordered by position
func (r *ChallengeRepository) GetChallengeBySlug(ctx context.Context, slug string) (*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + `
		FROM challenges
		WHERE slug = $1 AND published`

	var row challengeRow
	if err := r.db.GetContext(ctx, &row, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get challenge", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	casesQuery := `
		SELECT id, position, input, expected_output, is_hidden
		FROM challenge_test_cases
		WHERE challenge_slug = $1
		ORDER BY position, id`

	var cases []testCaseRow
	if err := r.db.SelectContext(ctx, &cases, casesQuery, slug); err != nil {
		r.logger.Error("Failed to get test cases", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}

	challenge := row.toDomain()
	challenge.TestCases = make([]domain.TestCase, 0, len(cases))
	for _, c := range cases {
		challenge.TestCases = append(challenge.TestCases, domain.TestCase{
			ID:             c.ID,
			Position:       c.Position,
			Input:          c.Input,
			ExpectedOutput: c.ExpectedOutput,
			Hidden:         c.Hidden,
		})
	}
	return challenge, nil
}

// ListChallenges lists published challenges without their test cases
func (r *ChallengeRepository) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + `
		FROM challenges
		WHERE published
		ORDER BY slug`

	var rows []challengeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to list challenges", "error", err)
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	challenges := make([]*domain.Challenge, 0, len(rows))
	for i := range rows {
		challenges = append(challenges, rows[i].toDomain())
	}
	return challenges, nil
}

func (row *challengeRow) toDomain() *domain.Challenge {
	return &domain.Challenge{
		Slug:          row.Slug,
		Title:         row.Title,
		Description:   row.Description,
		Difficulty:    domain.Difficulty(row.Difficulty),
		Languages:     []string(row.Languages),
		Tags:          []string(row.Tags),
		TimeLimit:     time.Duration(row.TimeLimitMs) * time.Millisecond,
		MemoryLimitMB: row.MemoryLimitMB,
	}
}
