package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		want   int
	}{
		{"zero rating", 0, 1},
		{"negative rating clamps to one", -20, 1},
		{"just below second level", 9, 1},
		{"second level boundary", 10, 2},
		{"just below starting level", 29, 3},
		{"starting rating", 30, 4},
		{"high rating", 490, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.rating))
		})
	}
}

func TestLevel_Monotonic(t *testing.T) {
	prev := Level(0)
	for r := 1; r <= 600; r++ {
		cur := Level(r)
		assert.GreaterOrEqual(t, cur, prev, "level dropped at rating %d", r)
		prev = cur
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  string
	}{
		{"level one", 1, "Novice Coder"},
		{"last level of first rung", 4, "Novice Coder"},
		{"second rung", 5, "Code Apprentice"},
		{"tenth rung", 49, "Master of Recursion"},
		{"plateau start", 50, "Grandmaster"},
		{"far past plateau", 500, "Grandmaster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.level))
		})
	}
}

func TestRatingDelta(t *testing.T) {
	tests := []struct {
		name   string
		solved int
		total  int
		want   int
	}{
		{"full solve", 4, 4, 10},
		{"three of four caps at six", 3, 4, 6},
		{"two of four", 2, 4, 4},
		{"one of four", 1, 4, 2},
		{"nothing solved", 0, 4, 0},
		{"full solve of short contest", 2, 2, 10},
		{"empty contest earns nothing", 0, 0, 0},
		{"many partial solves still cap", 5, 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RatingDelta(tt.solved, tt.total))
		})
	}
}

func TestTopTraits(t *testing.T) {
	stats := []TopicStat{
		{Topic: "dp", Solved: 3},
		{Topic: "graphs", Solved: 7},
		{Topic: "greedy", Solved: 3},
		{Topic: "math", Solved: 1},
	}

	got := TopTraits(stats, 3)
	// Descending by solved, ties in incoming order.
	assert.Equal(t, []string{"graphs", "dp", "greedy"}, got)

	// The input slice is not reordered.
	assert.Equal(t, "dp", stats[0].Topic)
}

func TestTopTraits_FewerThanLimit(t *testing.T) {
	got := TopTraits([]TopicStat{{Topic: "trees", Solved: 2}}, 5)
	assert.Equal(t, []string{"trees"}, got)

	assert.Empty(t, TopTraits(nil, 5))
}
