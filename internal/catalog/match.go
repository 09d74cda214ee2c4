package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/store"
)

// MatchMovies returns every movie satisfying all non-empty criteria fields.
// Text fields match case-sensitive substrings; year and duration match when
// the stored value falls in the MovieInt's set; directors and stars match
// when any one linked name contains any requested substring; tags match on
// set intersection.
func (c *Catalog) MatchMovies(ctx context.Context, criteria domain.MatchCriteria) ([]domain.MovieBag, error) {
	rows, err := store.FilterMovies(c.db, criteria.Title, criteria.Synopsis, criteria.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to filter movies: %w", err)
	}

	bags := make([]domain.MovieBag, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if criteria.Year != nil && !criteria.Year.IsZero() && !criteria.Year.Contains(row.Year) {
			continue
		}
		if criteria.Duration != nil && !criteria.Duration.IsZero() {
			if !row.Duration.Valid || !criteria.Duration.Contains(int(row.Duration.Int64)) {
				continue
			}
		}

		bag, err := c.bagFromRow(c.db, row)
		if err != nil {
			return nil, err
		}
		if !anyNameContains(bag.Directors, criteria.Directors) {
			continue
		}
		if !anyNameContains(bag.Stars, criteria.Stars) {
			continue
		}
		if !setsIntersect(bag.Tags, criteria.Tags) {
			continue
		}
		bags = append(bags, *bag)
	}
	return bags, nil
}

// anyNameContains reports whether any linked name contains any of the
// requested substrings. An empty request does not constrain.
func anyNameContains(names, requested []string) bool {
	requested = domain.NormalizeSet(requested)
	if len(requested) == 0 {
		return true
	}
	for _, name := range names {
		for _, sub := range requested {
			if strings.Contains(name, sub) {
				return true
			}
		}
	}
	return false
}

// setsIntersect reports whether the movie's tag set intersects the
// requested set. An empty request does not constrain.
func setsIntersect(tags, requested []string) bool {
	requested = domain.NormalizeSet(requested)
	if len(requested) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t] = struct{}{}
	}
	for _, r := range requested {
		if _, ok := have[r]; ok {
			return true
		}
	}
	return false
}
