package model

import (
	"time"
)

// StartingRating is assigned to every freshly created account.
const StartingRating = 30

type User struct {
	ID                     string    `json:"id"`
	Username               string    `json:"username"`
	HashedPassword         string    `json:"-"` // Not exposed
	Email                  *string   `json:"email,omitempty"`
	Rating                 int       `json:"rating"`
	TotalContests          int       `json:"totalContests"`
	TotalProblemsSolved    int       `json:"totalProblemsSolved"`
	TotalProblemsAttempted int       `json:"totalProblemsAttempted"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}
