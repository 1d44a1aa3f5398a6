package model

import (
	"time"
)

// UserTopicRating accumulates per-(user, topic) solve counters. Rows are
// upserted when a problem of that topic is solved and never deleted.
type UserTopicRating struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Topic             string    `json:"topic"`
	Rating            int       `json:"rating"`
	ProblemsSolved    int       `json:"problems_solved"`
	ProblemsAttempted int       `json:"problems_attempted"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProblemHistory tracks per-(user, external problem id) attempt/solve
// counters across contests.
type ProblemHistory struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ProblemID       string     `json:"problem_id"`
	TimesAttempted  int        `json:"times_attempted"`
	TimesSolved     int        `json:"times_solved"`
	BestTimeSeconds *int       `json:"best_time_seconds"`
	LastAttemptedAt *time.Time `json:"last_attempted_at"`
}
