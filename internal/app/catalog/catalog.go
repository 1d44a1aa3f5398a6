package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"

	"github.com/gosimple/slug"
)

// Problem is one entry of the standardized problem feed loaded at startup.
type Problem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	Source         string   `json:"source"`
	InternalRating int      `json:"internal_rating"`
	Tags           []string `json:"tags"`
}

// Topic returns the problem's primary tag, or "general" when untagged.
func (p Problem) Topic() string {
	if len(p.Tags) > 0 && p.Tags[0] != "" {
		return p.Tags[0]
	}
	return "general"
}

type problemFeed struct {
	Problems []Problem `json:"problems"`
}

// Catalog is an immutable in-memory collection of candidate problems.
// It is loaded once at process start and injected into the selector.
type Catalog struct {
	problems []Problem
}

func New(problems []Problem) *Catalog {
	return &Catalog{problems: problems}
}

// Load reads the problem feed from path. A missing file yields an empty
// catalog rather than a startup failure; any other read or decode error is
// surfaced to the caller.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Problem feed %s not found, starting with an empty catalog", path)
			return New(nil), nil
		}
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}

	var feed problemFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("catalog.Load: decode %s: %w", path, err)
	}

	for i := range feed.Problems {
		if feed.Problems[i].ID == "" {
			feed.Problems[i].ID = slug.Make(feed.Problems[i].Name)
		}
		if feed.Problems[i].Source == "" {
			feed.Problems[i].Source = "unknown"
		}
	}
	return New(feed.Problems), nil
}

func (c *Catalog) Size() int {
	return len(c.problems)
}

// InRatingRange returns every problem whose internal rating lies in
// [min, max] inclusive.
func (c *Catalog) InRatingRange(min, max int) []Problem {
	var out []Problem
	for _, p := range c.problems {
		if p.InternalRating >= min && p.InternalRating <= max {
			out = append(out, p)
		}
	}
	return out
}

// Tags returns the sorted union of all tags across the catalog.
func (c *Catalog) Tags() []string {
	seen := make(map[string]struct{})
	for _, p := range c.problems {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
