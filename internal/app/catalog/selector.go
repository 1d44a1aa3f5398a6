package catalog

import (
	"math/rand"
	"sync"
	"time"
)

// Selector draws contest problems near a user's rating. The candidate window
// is [rating, rating+10]; when that yields too few problems it widens to
// [max(1, rating-5), rating+15]. Safe for concurrent use.
type Selector struct {
	catalog *Catalog

	// rand.Rand is not safe for concurrent use and Select runs on every
	// generate request.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector builds a Selector over c. A nil rng falls back to a
// time-seeded source.
func NewSelector(c *Catalog, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{catalog: c, rng: rng}
}

// Select returns up to count problems chosen uniformly at random without
// replacement from the eligible window. When even the widened window holds
// fewer than count candidates, all of them are returned and the caller must
// tolerate a short contest. An empty catalog yields an empty result, never
// an error.
func (s *Selector) Select(userRating, count int) []Problem {
	minRating := userRating
	maxRating := userRating + 10

	eligible := s.catalog.InRatingRange(minRating, maxRating)
	if len(eligible) < count {
		eligible = s.catalog.InRatingRange(max(1, minRating-5), maxRating+5)
	}
	if len(eligible) <= count {
		return eligible
	}

	s.mu.Lock()
	perm := s.rng.Perm(len(eligible))
	s.mu.Unlock()

	picked := make([]Problem, 0, count)
	for _, i := range perm[:count] {
		picked = append(picked, eligible[i])
	}
	return picked
}
