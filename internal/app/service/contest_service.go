package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codequest/internal/app/catalog"
	"codequest/internal/app/flavor"
	"codequest/internal/app/progression"
	"codequest/internal/common"
	"codequest/internal/domain/model"
	"codequest/internal/domain/repository"
	"codequest/internal/platform/cache"
	"codequest/internal/platform/database"

	"github.com/google/uuid"
)

// ContestService is the contest lifecycle manager. It owns the per-user state
// machine (generate, mark-solved, complete, abandon) and keeps the user's
// aggregate counters consistent with contest state.
type ContestService struct {
	userRepo    repository.UserRepository
	contestRepo repository.ContestRepository
	statsRepo   repository.StatsRepository
	tx          database.TxRunner
	selector    *catalog.Selector
	flavor      *flavor.Generator
	locker      cache.ContestLocker
	contestSize int
}

func NewContestService(
	userRepo repository.UserRepository,
	contestRepo repository.ContestRepository,
	statsRepo repository.StatsRepository,
	tx database.TxRunner,
	selector *catalog.Selector,
	flavorGen *flavor.Generator,
	locker cache.ContestLocker,
	contestSize int,
) *ContestService {
	return &ContestService{
		userRepo:    userRepo,
		contestRepo: contestRepo,
		statsRepo:   statsRepo,
		tx:          tx,
		selector:    selector,
		flavor:      flavorGen,
		locker:      locker,
		contestSize: contestSize,
	}
}

// Generate creates a new ACTIVE contest for the user, sampling problems near
// their rating. It fails with Conflict when an active contest already exists.
// A per-user lock closes the window between the active-contest check and the
// insert under concurrent requests.
func (s *ContestService) Generate(ctx context.Context, userID string) (*ContestDetail, error) {
	ok, err := s.locker.TryLock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire contest lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("contest generation already in progress: %w", common.ErrConflict)
	}
	defer s.locker.Unlock(ctx, userID)

	if _, err := s.contestRepo.FindActiveByUser(ctx, userID); err == nil {
		return nil, fmt.Errorf("you already have an active contest, complete or abandon it first: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active contest: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	topicStats, _, err := s.loadTopicStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected := s.selector.Select(user.Rating, s.contestSize)
	title := s.flavor.Title(ctx, topicStats)

	targetDifficulty := 0
	if len(selected) > 0 {
		sum := 0
		for _, p := range selected {
			sum += p.InternalRating
		}
		targetDifficulty = sum / len(selected)
	}

	ratingChange := 0
	contest := &model.Contest{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            title,
		Status:           model.ContestActive,
		RatingAtStart:    user.Rating,
		RatingChange:     &ratingChange,
		NumProblems:      len(selected),
		TargetDifficulty: targetDifficulty,
		ProblemsSolved:   0,
		StartedAt:        time.Now(),
	}

	problems := make([]model.ContestProblem, 0, len(selected))
	for _, p := range selected {
		var url *string
		if p.URL != "" {
			u := p.URL
			url = &u
		}
		problems = append(problems, model.ContestProblem{
			ID:          uuid.NewString(),
			ContestID:   contest.ID,
			ProblemID:   p.ID,
			ProblemName: p.Name,
			ProblemURL:  url,
			Topic:       p.Topic(),
			Difficulty:  p.InternalRating,
			Source:      p.Source,
			Status:      model.ProblemPending,
		})
	}

	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.contestRepo.CreateContest(ctx, tx, contest); err != nil {
			return err
		}
		return s.contestRepo.CreateContestProblems(ctx, tx, problems)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}

	contest.Problems = problems
	return buildContestDetail(contest), nil
}

// MarkSolved transitions one pending problem of the user's active contest to
// SOLVED and updates every dependent counter in a single transaction. Marking
// an already solved problem is an error, not a no-op.
func (s *ContestService) MarkSolved(ctx context.Context, userID, questionID string) (*MarkSolvedResult, error) {
	active, err := s.activeContest(ctx, userID)
	if err != nil {
		return nil, err
	}

	problem, err := s.contestRepo.FindProblem(ctx, active.ID, questionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("question not found in this contest: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if problem.Status == model.ProblemSolved {
		return nil, fmt.Errorf("question already marked as solved: %w", common.ErrAlreadyDone)
	}

	var solvedCount int
	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.contestRepo.MarkProblemSolved(ctx, tx, problem.ID, time.Now()); err != nil {
			return err
		}

		// Authoritative recount rather than a blind increment, so any
		// earlier drift in the denormalized counter heals here.
		solvedCount, err = s.contestRepo.CountSolvedProblems(ctx, tx, active.ID)
		if err != nil {
			return err
		}
		if err := s.contestRepo.SetProblemsSolved(ctx, tx, active.ID, solvedCount); err != nil {
			return err
		}

		if err := s.statsRepo.RecordTopicSolve(ctx, tx, userID, problem.Topic); err != nil {
			return err
		}
		if err := s.statsRepo.RecordProblemSolve(ctx, tx, userID, problem.ProblemID); err != nil {
			return err
		}
		return s.userRepo.IncrementSolveCounters(ctx, tx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark question solved: %w", err)
	}

	return &MarkSolvedResult{
		Success:        true,
		QuestionID:     problem.ProblemID,
		Solved:         true,
		SolvedCount:    solvedCount,
		TotalQuestions: active.NumProblems,
		TagsUpdated:    []string{problem.Topic},
	}, nil
}

// Complete closes the user's active contest, applying the rating delta and
// bumping totalContests. The contest transitions to COMPLETED whether or not
// it was fully solved; abandonment is a separate explicit operation.
func (s *ContestService) Complete(ctx context.Context, userID string) (*CompleteResult, error) {
	active, err := s.activeContest(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	levelBefore := progression.Level(user.Rating)
	ratingBefore := active.RatingAtStart
	solved := active.ProblemsSolved
	total := active.NumProblems

	ratingChange := progression.RatingDelta(solved, total)
	ratingAfter := ratingBefore + ratingChange

	// Stats feed the flavor prompt and are read before the close, so a
	// failed read cannot leave a committed contest behind an error response.
	successful := active.IsSuccessful()
	var topicStats map[string]int
	if successful {
		topicStats, _, err = s.loadTopicStats(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.contestRepo.CloseContest(ctx, tx, active.ID, model.ContestCompleted, ratingChange, time.Now()); err != nil {
			return err
		}
		return s.userRepo.ApplyContestResult(ctx, tx, userID, ratingAfter)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete contest: %w", err)
	}

	levelAfter := progression.Level(ratingAfter)

	// Progression flavor is ephemeral display only, granted on a full solve.
	newTraits := []string{}
	var newTitle *string
	if successful {
		newTraits, newTitle = s.flavor.Progression(ctx, topicStats, levelAfter, nil, solved, total)
	}

	return &CompleteResult{
		Success:        true,
		ContestID:      active.ID,
		Status:         "completed",
		SolvedCount:    solved,
		TotalQuestions: total,
		RatingBefore:   ratingBefore,
		RatingAfter:    ratingAfter,
		RatingChange:   ratingChange,
		LevelBefore:    levelBefore,
		LevelAfter:     levelAfter,
		NewTraits:      newTraits,
		NewTitle:       newTitle,
	}, nil
}

// Abandon closes the active contest without any rating effect. The abandoned
// attempt still counts toward totalContests.
func (s *ContestService) Abandon(ctx context.Context, userID string) (*AbandonResult, error) {
	active, err := s.activeContest(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.contestRepo.CloseContest(ctx, tx, active.ID, model.ContestAbandoned, 0, time.Now()); err != nil {
			return err
		}
		return s.userRepo.ApplyContestResult(ctx, tx, userID, user.Rating)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to abandon contest: %w", err)
	}

	return &AbandonResult{
		Success:   true,
		Message:   "Contest abandoned",
		ContestID: active.ID,
	}, nil
}

// GetActive returns the user's active contest detail or NotFound.
func (s *ContestService) GetActive(ctx context.Context, userID string) (*ContestDetail, error) {
	active, err := s.contestRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no active contest found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load active contest: %w", err)
	}
	return buildContestDetail(active), nil
}

// GetByID returns one of the user's contests or NotFound.
func (s *ContestService) GetByID(ctx context.Context, userID, contestID string) (*ContestDetail, error) {
	contest, err := s.contestRepo.FindByID(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("contest not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load contest: %w", err)
	}
	return buildContestDetail(contest), nil
}

// History returns the user's closed contests, newest first, with aggregate
// counts.
func (s *ContestService) History(ctx context.Context, userID string) (*ContestHistory, error) {
	contests, err := s.contestRepo.ListFinishedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest history: %w", err)
	}

	details := make([]ContestDetail, 0, len(contests))
	totalSolved := 0
	successful := 0
	for i := range contests {
		d := buildContestDetail(&contests[i])
		details = append(details, *d)
		totalSolved += d.SolvedCount
		if d.Status == "completed" && d.SolvedCount == d.TotalQuestions {
			successful++
		}
	}

	return &ContestHistory{
		History:            details,
		Total:              len(details),
		TotalSolved:        totalSolved,
		SuccessfulContests: successful,
	}, nil
}

// List returns all of the user's contests, newest first.
func (s *ContestService) List(ctx context.Context, userID string) (*ContestList, error) {
	contests, err := s.contestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}

	details := make([]ContestDetail, 0, len(contests))
	for i := range contests {
		details = append(details, *buildContestDetail(&contests[i]))
	}
	return &ContestList{Contests: details, Total: len(details)}, nil
}

// Profile composes the user's progression view: rating-derived level and
// title, per-topic stats and the top practiced topics as profile traits.
func (s *ContestService) Profile(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var activeDetail *ContestDetail
	var activeID *string
	if active, err := s.contestRepo.FindActiveByUser(ctx, userID); err == nil {
		activeDetail = buildContestDetail(active)
		activeID = &active.ID
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to load active contest: %w", err)
	}

	totalContests, err := s.contestRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contests: %w", err)
	}
	successful, err := s.contestRepo.CountSuccessfulByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count successful contests: %w", err)
	}

	stats, ordered, err := s.loadTopicStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	level := progression.Level(user.Rating)

	return &UserProfile{
		UserID:               user.ID,
		Username:             user.Username,
		Rating:               user.Rating,
		Level:                level,
		Title:                progression.Title(level),
		Stats:                stats,
		Traits:               progression.TopTraits(ordered, 5),
		TotalQuestionsSolved: user.TotalProblemsSolved,
		TotalContests:        totalContests,
		SuccessfulContests:   successful,
		ActiveContestID:      activeID,
		ActiveContest:        activeDetail,
	}, nil
}

// activeContest loads the active contest and runs the defensive status check
// shared by the mutating operations.
func (s *ContestService) activeContest(ctx context.Context, userID string) (*model.Contest, error) {
	active, err := s.contestRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no active contest found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load active contest: %w", err)
	}
	if !active.IsActive() {
		return nil, fmt.Errorf("contest is not active: %w", common.ErrBadRequest)
	}
	return active, nil
}

// loadTopicStats returns the user's per-topic solve counts both as a map (for
// prompt building) and in insertion order (for stable trait ranking).
func (s *ContestService) loadTopicStats(ctx context.Context, userID string) (map[string]int, []progression.TopicStat, error) {
	rows, err := s.statsRepo.ListTopicRatings(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load topic stats: %w", err)
	}
	stats := make(map[string]int, len(rows))
	ordered := make([]progression.TopicStat, 0, len(rows))
	for _, tr := range rows {
		stats[tr.Topic] = tr.ProblemsSolved
		ordered = append(ordered, progression.TopicStat{Topic: tr.Topic, Solved: tr.ProblemsSolved})
	}
	return stats, ordered, nil
}
