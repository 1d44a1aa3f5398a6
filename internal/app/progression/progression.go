package progression

import (
	"sort"
)

// LevelTitles is the ordered ladder of display titles. The last entry is a
// plateau: every level from 50 up maps to it.
var LevelTitles = []string{
	"Novice Coder",
	"Code Apprentice",
	"Algorithm Knight",
	"Binary Baron",
	"Data Duke",
	"Logic Lord",
	"Syntax Sovereign",
	"Algorithm Archmage",
	"Code Champion",
	"Master of Recursion",
	"Grandmaster",
}

// Level derives a level number from a rating. It is monotonic non-decreasing;
// ratings 0-9 are level 1.
func Level(rating int) int {
	return max(1, rating/10+1)
}

// Title maps a level onto the title ladder, one rung per five levels.
func Title(level int) string {
	idx := min(level/5, len(LevelTitles)-1)
	return LevelTitles[idx]
}

// RatingDelta computes the rating change for a closed contest: a full solve
// earns +10, anything less earns two points per solved problem capped at +6.
// Solving 3 of 4 is worth +6 while 4 of 4 jumps to +10.
func RatingDelta(solved, total int) int {
	if total > 0 && solved == total {
		return 10
	}
	return min(solved*2, 6)
}

// TopicStat is one (topic, solved) pair for profile display.
type TopicStat struct {
	Topic  string
	Solved int
}

// TopTraits returns the user's strongest topics, descending by solved count,
// ties kept in the incoming order. These profile traits are distinct from the
// ephemeral post-contest flavor traits.
func TopTraits(stats []TopicStat, limit int) []string {
	ordered := make([]TopicStat, len(stats))
	copy(ordered, stats)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Solved > ordered[j].Solved
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	traits := make([]string, 0, len(ordered))
	for _, s := range ordered {
		traits = append(traits, s.Topic)
	}
	return traits
}
