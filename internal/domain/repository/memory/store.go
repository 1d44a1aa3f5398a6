// Package memory provides in-memory implementations of the repository
// interfaces plus a snapshot-based TxRunner. They back the service test
// suites and small single-node deployments never touch them.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"codequest/internal/domain/model"
)

// Store holds all records behind the memory repositories. RunTx takes a full
// snapshot before the unit of work and restores it when the work fails, so
// multi-row updates stay all-or-nothing like their SQL counterparts.
type Store struct {
	mu sync.Mutex

	users        map[string]model.User
	contests     map[string]model.Contest
	problems     []model.ContestProblem
	topicRatings []model.UserTopicRating
	history      []model.ProblemHistory

	// FailOn forces the named repository operation to return the given
	// error, for rollback tests.
	FailOn map[string]error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		contests: make(map[string]model.Contest),
		FailOn:   make(map[string]error),
	}
}

type snapshot struct {
	users        map[string]model.User
	contests     map[string]model.Contest
	problems     []model.ContestProblem
	topicRatings []model.UserTopicRating
	history      []model.ProblemHistory
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:        make(map[string]model.User, len(s.users)),
		contests:     make(map[string]model.Contest, len(s.contests)),
		problems:     append([]model.ContestProblem(nil), s.problems...),
		topicRatings: append([]model.UserTopicRating(nil), s.topicRatings...),
		history:      append([]model.ProblemHistory(nil), s.history...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.contests {
		snap.contests[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.contests = snap.contests
	s.problems = snap.problems
	s.topicRatings = snap.topicRatings
	s.history = snap.history
}

// RunTx implements database.TxRunner. The callback receives a nil *sql.Tx;
// the memory repositories ignore it.
func (s *Store) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) failure(op string) error {
	if err, ok := s.FailOn[op]; ok {
		return err
	}
	return nil
}
