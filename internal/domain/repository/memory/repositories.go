package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"codequest/internal/common"
	"codequest/internal/domain/model"
	"codequest/internal/domain/repository"

	"github.com/google/uuid"
)

// UserRepo returns a UserRepository over the store.
func (s *Store) UserRepo() repository.UserRepository { return &userRepo{s} }

// ContestRepo returns a ContestRepository over the store.
func (s *Store) ContestRepo() repository.ContestRepository { return &contestRepo{s} }

// StatsRepo returns a StatsRepository over the store.
func (s *Store) StatsRepo() repository.StatsRepository { return &statsRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return common.ErrConflict
		}
	}
	u := *user
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = u
	return nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *userRepo) IncrementSolveCounters(_ context.Context, _ *sql.Tx, userID string) error {
	if err := r.s.failure("IncrementSolveCounters"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return common.ErrNotFound
	}
	u.TotalProblemsSolved++
	u.TotalProblemsAttempted++
	u.UpdatedAt = time.Now()
	r.s.users[userID] = u
	return nil
}

func (r *userRepo) ApplyContestResult(_ context.Context, _ *sql.Tx, userID string, newRating int) error {
	if err := r.s.failure("ApplyContestResult"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return common.ErrNotFound
	}
	u.Rating = newRating
	u.TotalContests++
	u.UpdatedAt = time.Now()
	r.s.users[userID] = u
	return nil
}

type contestRepo struct{ s *Store }

func (r *contestRepo) CreateContest(_ context.Context, _ *sql.Tx, c *model.Contest) error {
	if err := r.s.failure("CreateContest"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *c
	stored.Problems = nil
	if stored.StartedAt.IsZero() {
		stored.StartedAt = time.Now()
	}
	r.s.contests[stored.ID] = stored
	return nil
}

func (r *contestRepo) CreateContestProblems(_ context.Context, _ *sql.Tx, problems []model.ContestProblem) error {
	if err := r.s.failure("CreateContestProblems"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.problems = append(r.s.problems, problems...)
	return nil
}

func (r *contestRepo) FindActiveByUser(_ context.Context, userID string) (*model.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contests {
		if c.UserID == userID && c.Status == model.ContestActive {
			out := c
			out.Problems = r.problemsOf(c.ID)
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *contestRepo) FindByID(_ context.Context, id, userID string) (*model.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contests[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrNotFound
	}
	out := c
	out.Problems = r.problemsOf(c.ID)
	return &out, nil
}

func (r *contestRepo) ListByUser(_ context.Context, userID string) ([]model.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Contest
	for _, c := range r.s.contests {
		if c.UserID == userID {
			loaded := c
			loaded.Problems = r.problemsOf(c.ID)
			out = append(out, loaded)
		}
	}
	sortContests(out, func(c model.Contest) time.Time { return c.StartedAt })
	return out, nil
}

func (r *contestRepo) ListFinishedByUser(_ context.Context, userID string) ([]model.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Contest
	for _, c := range r.s.contests {
		if c.UserID == userID && c.Status != model.ContestActive {
			loaded := c
			loaded.Problems = r.problemsOf(c.ID)
			out = append(out, loaded)
		}
	}
	sortContests(out, func(c model.Contest) time.Time {
		if c.EndedAt != nil {
			return *c.EndedAt
		}
		return time.Time{}
	})
	return out, nil
}

func (r *contestRepo) problemsOf(contestID string) []model.ContestProblem {
	var out []model.ContestProblem
	for _, p := range r.s.problems {
		if p.ContestID == contestID {
			out = append(out, p)
		}
	}
	return out
}

func (r *contestRepo) FindProblem(_ context.Context, contestID, problemID string) (*model.ContestProblem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.problems {
		if p.ContestID == contestID && p.ProblemID == problemID {
			out := p
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *contestRepo) MarkProblemSolved(_ context.Context, _ *sql.Tx, contestProblemID string, at time.Time) error {
	if err := r.s.failure("MarkProblemSolved"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.problems {
		if r.s.problems[i].ID == contestProblemID {
			r.s.problems[i].Status = model.ProblemSolved
			r.s.problems[i].SubmittedAt = &at
			r.s.problems[i].Attempts++
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *contestRepo) CountSolvedProblems(_ context.Context, _ *sql.Tx, contestID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, p := range r.s.problems {
		if p.ContestID == contestID && p.Status == model.ProblemSolved {
			count++
		}
	}
	return count, nil
}

func (r *contestRepo) SetProblemsSolved(_ context.Context, _ *sql.Tx, contestID string, solved int) error {
	if err := r.s.failure("SetProblemsSolved"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contests[contestID]
	if !ok {
		return common.ErrNotFound
	}
	c.ProblemsSolved = solved
	r.s.contests[contestID] = c
	return nil
}

func (r *contestRepo) CloseContest(_ context.Context, _ *sql.Tx, contestID string, status model.ContestStatus, ratingChange int, at time.Time) error {
	if err := r.s.failure("CloseContest"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contests[contestID]
	if !ok {
		return common.ErrNotFound
	}
	c.Status = status
	c.RatingChange = &ratingChange
	c.EndedAt = &at
	r.s.contests[contestID] = c
	return nil
}

func (r *contestRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, c := range r.s.contests {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *contestRepo) CountSuccessfulByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, c := range r.s.contests {
		if c.UserID == userID && c.Status == model.ContestCompleted &&
			c.ProblemsSolved == c.NumProblems {
			count++
		}
	}
	return count, nil
}

type statsRepo struct{ s *Store }

func (r *statsRepo) ListTopicRatings(_ context.Context, userID string) ([]model.UserTopicRating, error) {
	if err := r.s.failure("ListTopicRatings"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.UserTopicRating
	for _, tr := range r.s.topicRatings {
		if tr.UserID == userID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *statsRepo) RecordTopicSolve(_ context.Context, _ *sql.Tx, userID, topic string) error {
	if err := r.s.failure("RecordTopicSolve"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.topicRatings {
		if r.s.topicRatings[i].UserID == userID && r.s.topicRatings[i].Topic == topic {
			r.s.topicRatings[i].ProblemsSolved++
			r.s.topicRatings[i].UpdatedAt = time.Now()
			return nil
		}
	}
	now := time.Now()
	r.s.topicRatings = append(r.s.topicRatings, model.UserTopicRating{
		ID:                uuid.NewString(),
		UserID:            userID,
		Topic:             topic,
		ProblemsSolved:    1,
		ProblemsAttempted: 1,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	return nil
}

func (r *statsRepo) RecordProblemSolve(_ context.Context, _ *sql.Tx, userID, problemID string) error {
	if err := r.s.failure("RecordProblemSolve"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for i := range r.s.history {
		if r.s.history[i].UserID == userID && r.s.history[i].ProblemID == problemID {
			r.s.history[i].TimesAttempted++
			r.s.history[i].TimesSolved++
			r.s.history[i].LastAttemptedAt = &now
			return nil
		}
	}
	r.s.history = append(r.s.history, model.ProblemHistory{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProblemID:       problemID,
		TimesAttempted:  1,
		TimesSolved:     1,
		LastAttemptedAt: &now,
	})
	return nil
}

func sortContests(cs []model.Contest, key func(model.Contest) time.Time) {
	sort.SliceStable(cs, func(i, j int) bool {
		return key(cs[i]).After(key(cs[j]))
	})
}
