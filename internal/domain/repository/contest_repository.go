package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codequest/internal/common"
	"codequest/internal/domain/model"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error
	CreateContestProblems(ctx context.Context, tx *sql.Tx, problems []model.ContestProblem) error

	// FindActiveByUser returns the user's single ACTIVE contest with its
	// problems loaded, or common.ErrNotFound.
	FindActiveByUser(ctx context.Context, userID string) (*model.Contest, error)
	// FindByID is scoped to the owning user.
	FindByID(ctx context.Context, id, userID string) (*model.Contest, error)
	// ListByUser returns all contests ordered by start time descending.
	ListByUser(ctx context.Context, userID string) ([]model.Contest, error)
	// ListFinishedByUser returns COMPLETED and ABANDONED contests ordered by
	// end time descending.
	ListFinishedByUser(ctx context.Context, userID string) ([]model.Contest, error)

	FindProblem(ctx context.Context, contestID, problemID string) (*model.ContestProblem, error)
	MarkProblemSolved(ctx context.Context, tx *sql.Tx, contestProblemID string, at time.Time) error
	// CountSolvedProblems recounts SOLVED rows for the contest. It runs
	// inside the caller's transaction so it observes the current update.
	CountSolvedProblems(ctx context.Context, tx *sql.Tx, contestID string) (int, error)
	SetProblemsSolved(ctx context.Context, tx *sql.Tx, contestID string, solved int) error
	CloseContest(ctx context.Context, tx *sql.Tx, contestID string, status model.ContestStatus, ratingChange int, at time.Time) error

	CountByUser(ctx context.Context, userID string) (int, error)
	// CountSuccessfulByUser counts COMPLETED contests where every problem
	// was solved.
	CountSuccessfulByUser(ctx context.Context, userID string) (int, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

const contestColumns = `id, user_id, title, status, rating_at_start, rating_change,
	num_problems, target_difficulty, problems_solved, started_at, ended_at`

func (r *pgContestRepository) CreateContest(ctx context.Context, tx *sql.Tx, c *model.Contest) error {
	query := `INSERT INTO contests (id, user_id, title, status, rating_at_start, rating_change,
	            num_problems, target_difficulty, problems_solved)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecContext(ctx, query, c.ID, c.UserID, c.Title, c.Status, c.RatingAtStart,
		c.RatingChange, c.NumProblems, c.TargetDifficulty, c.ProblemsSolved)
	if err != nil {
		return fmt.Errorf("pgContestRepository.CreateContest: %w", err)
	}
	return nil
}

func (r *pgContestRepository) CreateContestProblems(ctx context.Context, tx *sql.Tx, problems []model.ContestProblem) error {
	query := `INSERT INTO contest_problems (id, contest_id, problem_id, problem_name, problem_url,
	            topic, difficulty, source, is_weak_topic_problem, status, attempts)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, p := range problems {
		_, err := tx.ExecContext(ctx, query, p.ID, p.ContestID, p.ProblemID, p.ProblemName, p.ProblemURL,
			p.Topic, p.Difficulty, p.Source, p.IsWeakTopicProblem, p.Status, p.Attempts)
		if err != nil {
			return fmt.Errorf("pgContestRepository.CreateContestProblems: %w", err)
		}
	}
	return nil
}

func (r *pgContestRepository) FindActiveByUser(ctx context.Context, userID string) (*model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE user_id = $1 AND status = $2`
	contest, err := r.scanContest(r.db.QueryRowContext(ctx, query, userID, model.ContestActive), "FindActiveByUser")
	if err != nil {
		return nil, err
	}
	if err := r.loadProblems(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

func (r *pgContestRepository) FindByID(ctx context.Context, id, userID string) (*model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE id = $1 AND user_id = $2`
	contest, err := r.scanContest(r.db.QueryRowContext(ctx, query, id, userID), "FindByID")
	if err != nil {
		return nil, err
	}
	if err := r.loadProblems(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

func (r *pgContestRepository) ListByUser(ctx context.Context, userID string) ([]model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE user_id = $1 ORDER BY started_at DESC`
	return r.queryContests(ctx, query, userID)
}

func (r *pgContestRepository) ListFinishedByUser(ctx context.Context, userID string) ([]model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests
	          WHERE user_id = $1 AND status IN ($2, $3)
	          ORDER BY ended_at DESC`
	return r.queryContests(ctx, query, userID, model.ContestCompleted, model.ContestAbandoned)
}

func (r *pgContestRepository) queryContests(ctx context.Context, query string, args ...interface{}) ([]model.Contest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.queryContests: %w", err)
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		c := model.Contest{}
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Status, &c.RatingAtStart, &c.RatingChange,
			&c.NumProblems, &c.TargetDifficulty, &c.ProblemsSolved, &c.StartedAt, &c.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("pgContestRepository.queryContests: %w", err)
		}
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.queryContests: %w", err)
	}

	for i := range contests {
		if err := r.loadProblems(ctx, &contests[i]); err != nil {
			return nil, err
		}
	}
	return contests, nil
}

func (r *pgContestRepository) scanContest(row *sql.Row, op string) (*model.Contest, error) {
	c := &model.Contest{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Status, &c.RatingAtStart, &c.RatingChange,
		&c.NumProblems, &c.TargetDifficulty, &c.ProblemsSolved, &c.StartedAt, &c.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.%s: %w", op, err)
	}
	return c, nil
}

func (r *pgContestRepository) loadProblems(ctx context.Context, c *model.Contest) error {
	query := `SELECT id, contest_id, problem_id, problem_name, problem_url, topic, difficulty,
	            source, is_weak_topic_problem, status, attempts, submitted_at
	          FROM contest_problems WHERE contest_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, c.ID)
	if err != nil {
		return fmt.Errorf("pgContestRepository.loadProblems: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := model.ContestProblem{}
		if err := rows.Scan(
			&p.ID, &p.ContestID, &p.ProblemID, &p.ProblemName, &p.ProblemURL, &p.Topic,
			&p.Difficulty, &p.Source, &p.IsWeakTopicProblem, &p.Status, &p.Attempts, &p.SubmittedAt,
		); err != nil {
			return fmt.Errorf("pgContestRepository.loadProblems: %w", err)
		}
		c.Problems = append(c.Problems, p)
	}
	return rows.Err()
}

func (r *pgContestRepository) FindProblem(ctx context.Context, contestID, problemID string) (*model.ContestProblem, error) {
	query := `SELECT id, contest_id, problem_id, problem_name, problem_url, topic, difficulty,
	            source, is_weak_topic_problem, status, attempts, submitted_at
	          FROM contest_problems WHERE contest_id = $1 AND problem_id = $2`
	p := &model.ContestProblem{}
	err := r.db.QueryRowContext(ctx, query, contestID, problemID).Scan(
		&p.ID, &p.ContestID, &p.ProblemID, &p.ProblemName, &p.ProblemURL, &p.Topic,
		&p.Difficulty, &p.Source, &p.IsWeakTopicProblem, &p.Status, &p.Attempts, &p.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.FindProblem: %w", err)
	}
	return p, nil
}

func (r *pgContestRepository) MarkProblemSolved(ctx context.Context, tx *sql.Tx, contestProblemID string, at time.Time) error {
	query := `UPDATE contest_problems SET
	            status = $1, submitted_at = $2, attempts = attempts + 1
	          WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, model.ProblemSolved, at, contestProblemID); err != nil {
		return fmt.Errorf("pgContestRepository.MarkProblemSolved: %w", err)
	}
	return nil
}

func (r *pgContestRepository) CountSolvedProblems(ctx context.Context, tx *sql.Tx, contestID string) (int, error) {
	query := `SELECT COUNT(*) FROM contest_problems WHERE contest_id = $1 AND status = $2`
	var count int
	if err := tx.QueryRowContext(ctx, query, contestID, model.ProblemSolved).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgContestRepository.CountSolvedProblems: %w", err)
	}
	return count, nil
}

func (r *pgContestRepository) SetProblemsSolved(ctx context.Context, tx *sql.Tx, contestID string, solved int) error {
	query := `UPDATE contests SET problems_solved = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, solved, contestID); err != nil {
		return fmt.Errorf("pgContestRepository.SetProblemsSolved: %w", err)
	}
	return nil
}

func (r *pgContestRepository) CloseContest(ctx context.Context, tx *sql.Tx, contestID string, status model.ContestStatus, ratingChange int, at time.Time) error {
	query := `UPDATE contests SET status = $1, rating_change = $2, ended_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, query, status, ratingChange, at, contestID); err != nil {
		return fmt.Errorf("pgContestRepository.CloseContest: %w", err)
	}
	return nil
}

func (r *pgContestRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM contests WHERE user_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgContestRepository.CountByUser: %w", err)
	}
	return count, nil
}

func (r *pgContestRepository) CountSuccessfulByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM contests
	          WHERE user_id = $1 AND status = $2 AND problems_solved = num_problems`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, model.ContestCompleted).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgContestRepository.CountSuccessfulByUser: %w", err)
	}
	return count, nil
}
