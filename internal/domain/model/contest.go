package model

import (
	"time"
)

type ContestStatus string
type ProblemStatus string

const (
	ContestActive    ContestStatus = "ACTIVE"
	ContestCompleted ContestStatus = "COMPLETED"
	ContestAbandoned ContestStatus = "ABANDONED"

	ProblemPending ProblemStatus = "PENDING"
	ProblemSolved  ProblemStatus = "SOLVED"
	ProblemFailed  ProblemStatus = "FAILED"
	ProblemSkipped ProblemStatus = "SKIPPED"
)

// Contest is one practice session. At most one contest per user may be
// ACTIVE at any time; it transitions to COMPLETED or ABANDONED exactly once
// and is never reopened.
type Contest struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Title            string        `json:"title"`
	Status           ContestStatus `json:"status"`
	RatingAtStart    int           `json:"rating_at_start"`
	RatingChange     *int          `json:"rating_change"` // nil until closed
	NumProblems      int           `json:"num_problems"`
	TargetDifficulty int           `json:"target_difficulty"`
	ProblemsSolved   int           `json:"problems_solved"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at"`

	Problems []ContestProblem `json:"problems,omitempty"`
}

// ContestProblem is one problem instance inside a contest. ProblemID is the
// external catalog id, not a row id.
type ContestProblem struct {
	ID                 string        `json:"id"`
	ContestID          string        `json:"contest_id"`
	ProblemID          string        `json:"problem_id"`
	ProblemName        string        `json:"problem_name"`
	ProblemURL         *string       `json:"problem_url"`
	Topic              string        `json:"topic"`
	Difficulty         int           `json:"difficulty"`
	Source             string        `json:"source"`
	IsWeakTopicProblem bool          `json:"is_weak_topic_problem"`
	Status             ProblemStatus `json:"status"`
	Attempts           int           `json:"attempts"`
	SubmittedAt        *time.Time    `json:"submitted_at"`
}

func (c *Contest) IsActive() bool {
	return c.Status == ContestActive
}

// IsSuccessful reports whether every problem in the contest was solved.
// An empty contest is never successful.
func (c *Contest) IsSuccessful() bool {
	return c.NumProblems > 0 && c.ProblemsSolved == c.NumProblems
}
