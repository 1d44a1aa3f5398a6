package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codequest/internal/common"
	"codequest/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)

	// IncrementSolveCounters bumps totalProblemsSolved and
	// totalProblemsAttempted together, keeping attempted >= solved.
	IncrementSolveCounters(ctx context.Context, tx *sql.Tx, userID string) error
	// ApplyContestResult sets the new rating and bumps totalContests.
	ApplyContestResult(ctx context.Context, tx *sql.Tx, userID string, newRating int) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, hashed_password, email, rating, total_contests,
	total_problems_solved, total_problems_attempted, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, hashed_password, email, rating)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.HashedPassword, user.Email, user.Rating)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username), "FindByUsername")
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgUserRepository) scanUser(row *sql.Row, op string) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.HashedPassword, &user.Email, &user.Rating,
		&user.TotalContests, &user.TotalProblemsSolved, &user.TotalProblemsAttempted,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) IncrementSolveCounters(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `UPDATE users SET
	            total_problems_solved = total_problems_solved + 1,
	            total_problems_attempted = total_problems_attempted + 1,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("pgUserRepository.IncrementSolveCounters: %w", err)
	}
	return nil
}

func (r *pgUserRepository) ApplyContestResult(ctx context.Context, tx *sql.Tx, userID string, newRating int) error {
	query := `UPDATE users SET
	            rating = $1,
	            total_contests = total_contests + 1,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, newRating, userID); err != nil {
		return fmt.Errorf("pgUserRepository.ApplyContestResult: %w", err)
	}
	return nil
}
