package flavor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a canned response or error and records the last
// prompt it saw.
type stubProvider struct {
	response string
	err      error
	prompt   string
}

func (p *stubProvider) GenerateText(_ context.Context, prompt string, _ Options) (string, error) {
	p.prompt = prompt
	return p.response, p.err
}

func seededGenerator(p Provider) *Generator {
	return NewGenerator(p, rand.New(rand.NewSource(42)))
}

func TestTitle_FromProvider(t *testing.T) {
	stub := &stubProvider{response: ` "Siege of the Hash Fortress" `}
	g := seededGenerator(stub)

	got := g.Title(context.Background(), map[string]int{"graphs": 3, "dp": 1})
	assert.Equal(t, "Siege of the Hash Fortress", got)
	assert.Contains(t, stub.prompt, "graphs: 3")
}

func TestTitle_FallbackOnProviderError(t *testing.T) {
	g := seededGenerator(&stubProvider{err: errors.New("quota exceeded")})

	got := g.Title(context.Background(), nil)
	assert.NotEmpty(t, got)
	assertFromPools(t, got)
}

func TestTitle_FallbackOnEmptyResponse(t *testing.T) {
	g := seededGenerator(&stubProvider{response: "  \n"})
	assertFromPools(t, g.Title(context.Background(), nil))
}

func TestTitle_NilProviderIsDeterministicPerSeed(t *testing.T) {
	a := NewGenerator(nil, rand.New(rand.NewSource(7)))
	b := NewGenerator(nil, rand.New(rand.NewSource(7)))
	assert.Equal(t, a.Title(context.Background(), nil), b.Title(context.Background(), nil))
}

func TestFallback_ConcurrentDraws(t *testing.T) {
	// The generator is shared across requests; concurrent fallback draws
	// must not trip the race detector.
	g := NewGenerator(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if g.Title(context.Background(), nil) == "" {
					t.Error("empty fallback title")
					return
				}
				g.Progression(context.Background(), nil, 4, nil, 4, 4)
			}
		}()
	}
	wg.Wait()
}

func assertFromPools(t *testing.T, title string) {
	t.Helper()
	for _, prefix := range titlePrefixes {
		for _, theme := range titleThemes {
			if title == prefix+" "+theme {
				return
			}
		}
	}
	t.Fatalf("title %q not composed from the local pools", title)
}

func TestProgression_ParsesProviderJSON(t *testing.T) {
	stub := &stubProvider{response: `{"traits": ["Hash Hero", "Loop Master"], "title": "Binary Baron"}`}
	g := seededGenerator(stub)

	traits, title := g.Progression(context.Background(), map[string]int{"dp": 2}, 4, nil, 4, 4)
	assert.Equal(t, []string{"Hash Hero", "Loop Master"}, traits)
	require.NotNil(t, title)
	assert.Equal(t, "Binary Baron", *title)
}

func TestProgression_StripsCodeFences(t *testing.T) {
	stub := &stubProvider{response: "```json\n{\"traits\": [\"Tree Tamer\"], \"title\": null}\n```"}
	g := seededGenerator(stub)

	traits, title := g.Progression(context.Background(), nil, 4, nil, 4, 4)
	assert.Equal(t, []string{"Tree Tamer"}, traits)
	assert.Nil(t, title)
}

func TestProgression_DropsKnownTraitsAndTruncates(t *testing.T) {
	stub := &stubProvider{response: `{"traits": ["Known One", "Fresh A", "Fresh B", "Fresh C"], "title": null}`}
	g := seededGenerator(stub)

	traits, _ := g.Progression(context.Background(), nil, 4, []string{"Known One"}, 4, 4)
	assert.Equal(t, []string{"Fresh A", "Fresh B"}, traits)
}

func TestProgression_FallbackOnUnparseableResponse(t *testing.T) {
	stub := &stubProvider{response: "Sorry, I cannot produce JSON today."}
	g := seededGenerator(stub)

	traits, title := g.Progression(context.Background(), nil, 4, nil, 4, 4)
	assert.Len(t, traits, 2)
	for _, tr := range traits {
		assert.Contains(t, traitPool, tr)
	}
	// A full solve always earns a fallback title.
	require.NotNil(t, title)
	assert.Contains(t, fallbackTitlePool, *title)
}

func TestProgression_FallbackTitleOnlyOnFullSolve(t *testing.T) {
	g := seededGenerator(nil)

	_, title := g.Progression(context.Background(), nil, 4, nil, 3, 4)
	assert.Nil(t, title)

	_, title = g.Progression(context.Background(), nil, 4, nil, 0, 0)
	assert.Nil(t, title)

	_, title = g.Progression(context.Background(), nil, 4, nil, 4, 4)
	require.NotNil(t, title)
	// Level 4 maps onto the first fallback rung.
	assert.Equal(t, fallbackTitlePool[0], *title)
}

func TestProgression_FallbackTitlePlateaus(t *testing.T) {
	g := seededGenerator(nil)

	_, title := g.Progression(context.Background(), nil, 250, nil, 4, 4)
	require.NotNil(t, title)
	assert.Equal(t, fallbackTitlePool[len(fallbackTitlePool)-1], *title)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare text", `{"a": 1}`, `{"a": 1}`},
		{"fence with json tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}

func TestStatsSummary(t *testing.T) {
	stats := map[string]int{"dp": 2, "graphs": 5, "math": 2}

	// Descending by count, ties broken alphabetically.
	assert.Equal(t, "graphs: 5, dp: 2, math: 2", statsSummary(stats, 0))
	assert.Equal(t, "graphs: 5", statsSummary(stats, 1))
	assert.Equal(t, "", statsSummary(nil, 0))
}
