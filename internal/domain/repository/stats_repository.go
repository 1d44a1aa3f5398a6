package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codequest/internal/domain/model"

	"github.com/google/uuid"
)

type StatsRepository interface {
	// ListTopicRatings returns the user's per-topic counters in insertion
	// order, so profile trait ties resolve stably.
	ListTopicRatings(ctx context.Context, userID string) ([]model.UserTopicRating, error)
	// RecordTopicSolve upserts the (user, topic) row: a new row starts at
	// solved=1 attempted=1, an existing row increments solved only.
	RecordTopicSolve(ctx context.Context, tx *sql.Tx, userID, topic string) error
	// RecordProblemSolve upserts the (user, problem) history row,
	// incrementing both attempt and solve counters.
	RecordProblemSolve(ctx context.Context, tx *sql.Tx, userID, problemID string) error
}

type pgStatsRepository struct {
	db *sql.DB
}

func NewPgStatsRepository(db *sql.DB) StatsRepository {
	return &pgStatsRepository{db: db}
}

func (r *pgStatsRepository) ListTopicRatings(ctx context.Context, userID string) ([]model.UserTopicRating, error) {
	query := `SELECT id, user_id, topic, rating, problems_solved, problems_attempted, created_at, updated_at
	          FROM user_topic_ratings WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgStatsRepository.ListTopicRatings: %w", err)
	}
	defer rows.Close()

	var ratings []model.UserTopicRating
	for rows.Next() {
		tr := model.UserTopicRating{}
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.Topic, &tr.Rating, &tr.ProblemsSolved,
			&tr.ProblemsAttempted, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgStatsRepository.ListTopicRatings: %w", err)
		}
		ratings = append(ratings, tr)
	}
	return ratings, rows.Err()
}

func (r *pgStatsRepository) RecordTopicSolve(ctx context.Context, tx *sql.Tx, userID, topic string) error {
	query := `INSERT INTO user_topic_ratings (id, user_id, topic, rating, problems_solved, problems_attempted)
	          VALUES ($1, $2, $3, 0, 1, 1)
	          ON CONFLICT (user_id, topic) DO UPDATE SET
	            problems_solved = user_topic_ratings.problems_solved + 1,
	            updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), userID, topic); err != nil {
		return fmt.Errorf("pgStatsRepository.RecordTopicSolve: %w", err)
	}
	return nil
}

func (r *pgStatsRepository) RecordProblemSolve(ctx context.Context, tx *sql.Tx, userID, problemID string) error {
	query := `INSERT INTO problem_history (id, user_id, problem_id, times_attempted, times_solved, last_attempted_at)
	          VALUES ($1, $2, $3, 1, 1, CURRENT_TIMESTAMP)
	          ON CONFLICT (user_id, problem_id) DO UPDATE SET
	            times_attempted = problem_history.times_attempted + 1,
	            times_solved = problem_history.times_solved + 1,
	            last_attempted_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), userID, problemID); err != nil {
		return fmt.Errorf("pgStatsRepository.RecordProblemSolve: %w", err)
	}
	return nil
}
