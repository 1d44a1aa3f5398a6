package catalog

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(ratings ...int) *Catalog {
	problems := make([]Problem, 0, len(ratings))
	for i, r := range ratings {
		problems = append(problems, Problem{
			ID:             string(rune('a' + i)),
			InternalRating: r,
		})
	}
	return New(problems)
}

func TestSelect_PrefersPrimaryWindow(t *testing.T) {
	// Plenty of problems in [30, 40]; none of the out-of-window ones may
	// appear.
	cat := testCatalog(30, 32, 35, 38, 40, 5, 90)
	sel := NewSelector(cat, rand.New(rand.NewSource(1)))

	got := sel.Select(30, 4)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.InternalRating, 30)
		assert.LessOrEqual(t, p.InternalRating, 40)
	}
}

func TestSelect_WidensWhenPrimaryWindowThin(t *testing.T) {
	// Only two problems in [30, 40], the rest sit in the widened
	// [25, 45] band.
	cat := testCatalog(30, 40, 26, 44, 25)
	sel := NewSelector(cat, rand.New(rand.NewSource(1)))

	got := sel.Select(30, 4)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.InternalRating, 25)
		assert.LessOrEqual(t, p.InternalRating, 45)
	}
}

func TestSelect_WidenedFloorClampsToOne(t *testing.T) {
	// At rating 3 the widened window floor is 1, not -2.
	cat := testCatalog(1, 2, 0, -5)
	sel := NewSelector(cat, rand.New(rand.NewSource(1)))

	got := sel.Select(3, 4)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.InternalRating, 1)
	}
}

func TestSelect_ShortContestWhenCatalogThin(t *testing.T) {
	cat := testCatalog(31, 33)
	sel := NewSelector(cat, rand.New(rand.NewSource(1)))

	got := sel.Select(30, 4)
	assert.Len(t, got, 2)
}

func TestSelect_EmptyCatalog(t *testing.T) {
	sel := NewSelector(New(nil), rand.New(rand.NewSource(1)))
	assert.Empty(t, sel.Select(30, 4))
}

func TestSelect_ConcurrentRequests(t *testing.T) {
	// One selector serves every generate request; concurrent draws must not
	// trip the race detector.
	cat := testCatalog(30, 31, 32, 33, 34, 35, 36, 37, 38, 39)
	sel := NewSelector(cat, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := sel.Select(30, 4); len(got) != 4 {
					t.Errorf("expected 4 problems, got %d", len(got))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSelect_NoDuplicates(t *testing.T) {
	cat := testCatalog(30, 31, 32, 33, 34, 35, 36, 37, 38, 39)
	sel := NewSelector(cat, rand.New(rand.NewSource(7)))

	for i := 0; i < 50; i++ {
		got := sel.Select(30, 4)
		require.Len(t, got, 4)
		seen := make(map[string]struct{}, len(got))
		for _, p := range got {
			_, dup := seen[p.ID]
			require.False(t, dup, "problem %s picked twice", p.ID)
			seen[p.ID] = struct{}{}
		}
	}
}
