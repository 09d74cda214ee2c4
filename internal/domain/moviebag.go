package domain

import (
	"sort"
	"strings"
	"time"
)

// MovieKey is the natural key of a movie.
type MovieKey struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// MovieBag is a snapshot of a movie and its link sets as it crosses the
// engine boundary. Consumers mutate copies only; the store is the single
// owner of the underlying rows.
type MovieBag struct {
	ID        int       `json:"id,omitempty"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Duration  int       `json:"duration,omitempty"`
	Synopsis  string    `json:"synopsis,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Directors []string  `json:"directors,omitempty"`
	Stars     []string  `json:"stars,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Created   time.Time `json:"created,omitempty"`
	Updated   time.Time `json:"updated,omitempty"`
}

func (b *MovieBag) Key() MovieKey {
	return MovieKey{Title: b.Title, Year: b.Year}
}

// MoviePatch is the partial-update companion of MovieBag: only non-nil
// fields are applied, and link collections are replaced wholesale when
// present.
type MoviePatch struct {
	Title     *string   `json:"title,omitempty"`
	Year      *int      `json:"year,omitempty"`
	Duration  *int      `json:"duration,omitempty"`
	Synopsis  *string   `json:"synopsis,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Directors *[]string `json:"directors,omitempty"`
	Stars     *[]string `json:"stars,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// MatchCriteria is a partial MovieBag used for searching. Empty strings and
// empty collections do not constrain; non-empty fields are AND-combined.
type MatchCriteria struct {
	Title     string    `json:"title,omitempty"`
	Year      *MovieInt `json:"year,omitempty"`
	Duration  *MovieInt `json:"duration,omitempty"`
	Synopsis  string    `json:"synopsis,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Directors []string  `json:"directors,omitempty"`
	Stars     []string  `json:"stars,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// SetToDisplay renders a link set for display: stable alphabetical order,
// comma-space joined. A missing or empty set becomes the empty string.
func SetToDisplay(set []string) string {
	if len(set) == 0 {
		return ""
	}
	sorted := make([]string, len(set))
	copy(sorted, set)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// NormalizeSet trims whitespace, drops empty strings and duplicates, and
// returns the set in sorted order.
func NormalizeSet(set []string) []string {
	seen := make(map[string]struct{}, len(set))
	var out []string
	for _, s := range set {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
