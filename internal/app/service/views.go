package service

import (
	"fmt"
	"strings"
	"time"

	"codequest/internal/domain/model"
)

// QuestionOut is the wire shape of one contest problem.
type QuestionOut struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	URL                *string  `json:"url"`
	Source             string   `json:"source"`
	InternalRating     int      `json:"internalRating"`
	Topic              string   `json:"topic"`
	Tags               []string `json:"tags"`
	IsWeakTopicProblem bool     `json:"isWeakTopicProblem"`
}

// ContestDetail is the composed contest view shared by every contest
// endpoint.
type ContestDetail struct {
	ContestID      string         `json:"contestId"`
	UserID         string         `json:"userId"`
	Title          string         `json:"title"`
	Status         string         `json:"status"`
	Questions      []QuestionOut  `json:"questions"`
	QuestionStates map[string]int `json:"questionStates"`
	SolvedCount    int            `json:"solvedCount"`
	TotalQuestions int            `json:"totalQuestions"`
	RatingBefore   int            `json:"ratingBefore"`
	RatingAfter    *int           `json:"ratingAfter"`
	CreatedAt      time.Time      `json:"createdAt"`
	CompletedAt    *time.Time     `json:"completedAt"`
}

type MarkSolvedResult struct {
	Success        bool     `json:"success"`
	QuestionID     string   `json:"questionId"`
	Solved         bool     `json:"solved"`
	SolvedCount    int      `json:"solvedCount"`
	TotalQuestions int      `json:"totalQuestions"`
	TagsUpdated    []string `json:"tagsUpdated"`
}

type CompleteResult struct {
	Success        bool     `json:"success"`
	ContestID      string   `json:"contestId"`
	Status         string   `json:"status"`
	SolvedCount    int      `json:"solvedCount"`
	TotalQuestions int      `json:"totalQuestions"`
	RatingBefore   int      `json:"ratingBefore"`
	RatingAfter    int      `json:"ratingAfter"`
	RatingChange   int      `json:"ratingChange"`
	LevelBefore    int      `json:"levelBefore"`
	LevelAfter     int      `json:"levelAfter"`
	NewTraits      []string `json:"newTraits"`
	NewTitle       *string  `json:"newTitle"`
}

type AbandonResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContestID string `json:"contestId"`
}

type ContestHistory struct {
	History            []ContestDetail `json:"history"`
	Total              int             `json:"total"`
	TotalSolved        int             `json:"totalSolved"`
	SuccessfulContests int             `json:"successfulContests"`
}

type ContestList struct {
	Contests []ContestDetail `json:"contests"`
	Total    int             `json:"total"`
}

type UserProfile struct {
	UserID               string         `json:"userId"`
	Username             string         `json:"username"`
	Rating               int            `json:"rating"`
	Level                int            `json:"level"`
	Title                string         `json:"title"`
	Stats                map[string]int `json:"stats"`
	Traits               []string       `json:"traits"`
	TotalQuestionsSolved int            `json:"totalQuestionsSolved"`
	TotalContests        int            `json:"totalContests"`
	SuccessfulContests   int            `json:"successfulContests"`
	ActiveContestID      *string        `json:"activeContestId"`
	ActiveContest        *ContestDetail `json:"activeContest"`
}

// buildContestDetail converts a contest with loaded problems into the shape
// the frontend expects. The solved count is derived from problem states, not
// the denormalized counter.
func buildContestDetail(c *model.Contest) *ContestDetail {
	questions := make([]QuestionOut, 0, len(c.Problems))
	states := make(map[string]int, len(c.Problems))
	solved := 0

	for _, p := range c.Problems {
		questions = append(questions, QuestionOut{
			ID:                 p.ProblemID,
			Name:               p.ProblemName,
			URL:                p.ProblemURL,
			Source:             p.Source,
			InternalRating:     p.Difficulty,
			Topic:              p.Topic,
			Tags:               []string{p.Topic},
			IsWeakTopicProblem: p.IsWeakTopicProblem,
		})
		if p.Status == model.ProblemSolved {
			states[p.ProblemID] = 1
			solved++
		} else {
			states[p.ProblemID] = 0
		}
	}

	title := c.Title
	if title == "" {
		title = fmt.Sprintf("Contest #%s", c.ID)
	}

	var ratingAfter *int
	if c.RatingChange != nil {
		after := c.RatingAtStart + *c.RatingChange
		ratingAfter = &after
	}

	total := c.NumProblems
	if total == 0 {
		total = len(questions)
	}

	return &ContestDetail{
		ContestID:      c.ID,
		UserID:         c.UserID,
		Title:          title,
		Status:         strings.ToLower(string(c.Status)),
		Questions:      questions,
		QuestionStates: states,
		SolvedCount:    solved,
		TotalQuestions: total,
		RatingBefore:   c.RatingAtStart,
		RatingAfter:    ratingAfter,
		CreatedAt:      c.StartedAt,
		CompletedAt:    c.EndedAt,
	}
}
