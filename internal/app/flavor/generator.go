package flavor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

var titlePrefixes = []string{
	"The Shadow",
	"Trial of the",
	"Rise of",
	"The Fallen",
	"Siege of",
	"Dawn of",
	"The Last",
	"Echoes of",
}

var titleThemes = []string{
	"Algorithm Master",
	"Code Breaker",
	"Binary Phantom",
	"Recursive Dragon",
	"Stack Overflow",
	"Null Pointer",
	"Infinite Loop",
	"Memory Leviathan",
	"Logic Fortress",
	"Data Serpent",
}

var traitPool = []string{
	"Algorithm Adept",
	"Code Warrior",
	"Binary Sage",
	"Loop Master",
	"Recursion Wizard",
	"Data Whisperer",
	"Stack Slayer",
	"Graph Navigator",
	"Dynamic Dynamo",
	"Greedy Genius",
	"Divide Conqueror",
	"Search Sentinel",
	"Sort Sorcerer",
	"Tree Tamer",
	"Hash Hero",
}

var fallbackTitlePool = []string{
	"Rising Coder",
	"Code Apprentice",
	"Algorithm Knight",
	"Binary Baron",
	"Data Duke",
	"Logic Lord",
	"Syntax Sovereign",
	"Algorithm Archmage",
	"Code Champion",
	"Master of Recursion",
}

// Generator produces contest titles and post-completion progression flavor.
// With a nil provider, or on any provider failure, it falls back to the fixed
// local pools. Provider failures never propagate to the caller. Safe for
// concurrent use.
type Generator struct {
	provider Provider

	// rand.Rand is not safe for concurrent use; fallback draws happen on
	// the request path.
	mu  sync.Mutex
	rng *rand.Rand
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) perm(n int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Perm(n)
}

// NewGenerator builds a Generator. provider may be nil (offline mode); a nil
// rng falls back to a time-seeded source.
func NewGenerator(provider Provider, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{provider: provider, rng: rng}
}

// Title produces a short epic contest title from the user's per-topic solve
// counts.
func (g *Generator) Title(ctx context.Context, topicStats map[string]int) string {
	if g.provider == nil {
		return g.fallbackTitle()
	}

	summary := statsSummary(topicStats, 0)
	if summary == "" {
		summary = "New adventurer with no completed challenges yet"
	}

	prompt := fmt.Sprintf(`Generate a creative, epic title for a boss mission/contest in a competitive programming game.
The player has the following stats (tags they've practiced): %s

Make it sound like an epic quest or boss battle. Keep it short (3-6 words).
Just return the title, nothing else. No quotes, no explanation.`, summary)

	text, err := g.provider.GenerateText(ctx, prompt, Options{MaxTokens: 50, Temperature: 0.9})
	if err != nil {
		log.Printf("flavor: title generation failed, using fallback: %v", err)
		return g.fallbackTitle()
	}

	title := strings.Trim(strings.TrimSpace(text), `"'`)
	if title == "" {
		return g.fallbackTitle()
	}
	return title
}

// Progression returns up to two new traits and an optional new title after a
// fully successful contest. Results are ephemeral: they are shown to the user
// once and never persisted.
func (g *Generator) Progression(ctx context.Context, topicStats map[string]int, currentLevel int, currentTraits []string, solvedCount, totalCount int) ([]string, *string) {
	if g.provider == nil {
		return g.fallbackProgression(currentLevel, solvedCount, totalCount)
	}

	summary := statsSummary(topicStats, 10)
	if summary == "" {
		summary = "Beginner with limited experience"
	}
	existing := "None yet"
	if len(currentTraits) > 0 {
		existing = strings.Join(currentTraits, ", ")
	}

	prompt := fmt.Sprintf(`You are generating character progression for a competitive programming game player.

Player Stats:
- Level: %d
- Top practiced tags: %s
- Questions solved in this contest: %d/%d
- Current traits: %s

Generate 1-2 NEW traits and optionally a new title based on their progression.
Traits should be short, epic-sounding attributes (e.g., "Binary Sage", "Loop Breaker", "Greedy Tactician").
Title should be an epic character title based on their strongest skills.

Return ONLY valid JSON in this exact format, no markdown, no explanation:
{"traits": ["trait1", "trait2"], "title": "Epic Title Here"}

If no new title is warranted, use null for title.
Make traits unique and not duplicate existing ones.`, currentLevel, summary, solvedCount, totalCount, existing)

	text, err := g.provider.GenerateText(ctx, prompt, Options{MaxTokens: 150, Temperature: 0.8})
	if err != nil {
		log.Printf("flavor: progression generation failed, using fallback: %v", err)
		return g.fallbackProgression(currentLevel, solvedCount, totalCount)
	}

	traits, title, err := parseProgression(text, currentTraits)
	if err != nil {
		log.Printf("flavor: unparseable progression response, using fallback: %v", err)
		return g.fallbackProgression(currentLevel, solvedCount, totalCount)
	}
	return traits, title
}

type progressionPayload struct {
	Traits []string `json:"traits"`
	Title  *string  `json:"title"`
}

// parseProgression decodes the model's fenced-or-bare JSON object, drops
// traits the player already has and truncates to two results.
func parseProgression(text string, currentTraits []string) ([]string, *string, error) {
	var payload progressionPayload
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err != nil {
		return nil, nil, fmt.Errorf("parse progression JSON: %w", err)
	}

	known := make(map[string]struct{}, len(currentTraits))
	for _, t := range currentTraits {
		known[t] = struct{}{}
	}

	unique := make([]string, 0, len(payload.Traits))
	for _, t := range payload.Traits {
		if _, dup := known[t]; !dup {
			unique = append(unique, t)
		}
	}
	if len(unique) > 2 {
		unique = unique[:2]
	}
	return unique, payload.Title, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a "json" language tag, leaving bare text untouched.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

func (g *Generator) fallbackTitle() string {
	return titlePrefixes[g.intn(len(titlePrefixes))] + " " + titleThemes[g.intn(len(titleThemes))]
}

// fallbackProgression draws two traits at random without replacement and
// grants a pool title only when every problem in the contest was solved.
func (g *Generator) fallbackProgression(currentLevel, solvedCount, totalCount int) ([]string, *string) {
	n := min(2, len(traitPool))
	traits := make([]string, 0, n)
	for _, i := range g.perm(len(traitPool))[:n] {
		traits = append(traits, traitPool[i])
	}

	var title *string
	if totalCount > 0 && solvedCount == totalCount {
		idx := min(currentLevel/10, len(fallbackTitlePool)-1)
		title = &fallbackTitlePool[idx]
	}
	return traits, title
}

// statsSummary renders "tag: count" pairs, descending by count. limit == 0
// keeps every entry.
func statsSummary(stats map[string]int, limit int) string {
	type pair struct {
		tag   string
		count int
	}
	pairs := make([]pair, 0, len(stats))
	for tag, count := range stats {
		pairs = append(pairs, pair{tag, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].tag < pairs[j].tag
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s: %d", p.tag, p.count))
	}
	return strings.Join(parts, ", ")
}
