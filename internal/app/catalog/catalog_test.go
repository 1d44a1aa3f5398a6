package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	feed := `{
		"problems": [
			{"id": "two-sum", "name": "Two Sum", "url": "https://example.com/1", "source": "leetcode", "internal_rating": 30, "tags": ["arrays", "hashing"]},
			{"name": "Graph Paths!", "internal_rating": 42, "tags": ["graphs"]}
		]
	}`
	path := writeFeed(t, feed)

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Size())

	problems := cat.InRatingRange(0, 100)
	require.Len(t, problems, 2)
	assert.Equal(t, "two-sum", problems[0].ID)
	// Missing id is slugified from the name, missing source defaults.
	assert.Equal(t, "graph-paths", problems[1].ID)
	assert.Equal(t, "unknown", problems[1].Source)
}

func TestLoad_MissingFileYieldsEmptyCatalog(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Size())
}

func TestLoad_MalformedFeed(t *testing.T) {
	_, err := Load(writeFeed(t, "{not json"))
	assert.Error(t, err)
}

func TestProblemTopic(t *testing.T) {
	assert.Equal(t, "graphs", Problem{Tags: []string{"graphs", "bfs"}}.Topic())
	assert.Equal(t, "general", Problem{}.Topic())
	assert.Equal(t, "general", Problem{Tags: []string{""}}.Topic())
}

func TestInRatingRange(t *testing.T) {
	cat := New([]Problem{
		{ID: "a", InternalRating: 10},
		{ID: "b", InternalRating: 20},
		{ID: "c", InternalRating: 30},
	})

	got := cat.InRatingRange(10, 20)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	assert.Empty(t, cat.InRatingRange(40, 50))
}

func TestTags(t *testing.T) {
	cat := New([]Problem{
		{ID: "a", Tags: []string{"graphs", "bfs"}},
		{ID: "b", Tags: []string{"dp", "graphs"}},
	})
	assert.Equal(t, []string{"bfs", "dp", "graphs"}, cat.Tags())
}

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problems.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
