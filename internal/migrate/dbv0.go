// Package migrate projects recognized prior-version databases into the
// current MovieBag shape. Reflectors open the old file read-only and never
// write to it; the caller inserts the projection through the catalog and
// advances the version metafile only on full success.
package migrate

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/faults"

	_ "modernc.org/sqlite"
)

// Reflected is the projection of a prior-version database.
type Reflected struct {
	Tags   []string
	Movies []domain.MovieBag
}

// v0MovieRow mirrors the DBv0 movies table. The old director column was a
// comma-separated string, and the old notes column carried synopsis content.
type v0MovieRow struct {
	ID       int     `db:"id"`
	Title    string  `db:"title"`
	Director *string `db:"director"`
	Minutes  *int    `db:"minutes"`
	Year     int     `db:"year"`
	Notes    *string `db:"notes"`
}

type v0TagRow struct {
	ID  int    `db:"id"`
	Tag string `db:"tag"`
}

type v0LinkRow struct {
	MovieID int `db:"movie_id"`
	TagID   int `db:"tag_id"`
}

// FromV0 reflects the DBv0 database under dataDir. After projection the
// row counts of every stage are cross-checked against the reflected
// outputs; any mismatch fails UpdateCheckZero.
func FromV0(dataDir string) (*Reflected, error) {
	path := filepath.Join(dataDir, constants.OldSchemaVersion0, constants.DatabaseFileName)
	db, err := sqlx.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open old database: %w", err)
	}
	defer db.Close() //nolint:errcheck // deferred cleanup

	var tagRows []v0TagRow
	if err := db.Select(&tagRows, `SELECT id, tag FROM tags`); err != nil {
		return nil, fmt.Errorf("failed to reflect old tags: %w", err)
	}
	tagTextByID := make(map[int]string, len(tagRows))
	tags := make([]string, 0, len(tagRows))
	for _, row := range tagRows {
		tagTextByID[row.ID] = row.Tag
		tags = append(tags, row.Tag)
	}

	var movieRows []v0MovieRow
	if err := db.Select(&movieRows, `SELECT id, title, director, minutes, year, notes FROM movies`); err != nil {
		return nil, fmt.Errorf("failed to reflect old movies: %w", err)
	}

	bagByID := make(map[int]*domain.MovieBag, len(movieRows))
	order := make([]int, 0, len(movieRows))
	for _, row := range movieRows {
		bag := &domain.MovieBag{
			Title: row.Title,
			Year:  row.Year,
		}
		if row.Director != nil {
			bag.Directors = splitDirectors(*row.Director)
		}
		if row.Minutes != nil {
			bag.Duration = *row.Minutes
		}
		if row.Notes != nil {
			// The old notes column carried synopsis content; copy it to both.
			bag.Notes = *row.Notes
			bag.Synopsis = *row.Notes
		}
		bagByID[row.ID] = bag
		order = append(order, row.ID)
	}

	var linkRows []v0LinkRow
	if err := db.Select(&linkRows, `SELECT movie_id, tag_id FROM movie_tag`); err != nil {
		return nil, fmt.Errorf("failed to reflect old movie tags: %w", err)
	}
	linkedMovies := make(map[int]struct{})
	for _, link := range linkRows {
		bag, ok := bagByID[link.MovieID]
		if !ok {
			continue
		}
		if text, ok := tagTextByID[link.TagID]; ok {
			bag.Tags = append(bag.Tags, text)
			linkedMovies[link.MovieID] = struct{}{}
		}
	}

	distinctLinked := make(map[int]struct{})
	for _, link := range linkRows {
		distinctLinked[link.MovieID] = struct{}{}
	}

	if err := crossCheck(len(tagRows), len(tags), "tags"); err != nil {
		return nil, err
	}
	if err := crossCheck(len(distinctLinked), len(linkedMovies), "movie tag links"); err != nil {
		return nil, err
	}
	if err := crossCheck(len(movieRows), len(bagByID), "movies"); err != nil {
		return nil, err
	}

	movies := make([]domain.MovieBag, 0, len(order))
	for _, id := range order {
		movies = append(movies, *bagByID[id])
	}
	return &Reflected{Tags: tags, Movies: movies}, nil
}

func crossCheck(reflected, produced int, stage string) error {
	if reflected != produced {
		return faults.New(faults.UpdateCheckZero,
			"post-migration row count mismatch",
			stage, strconv.Itoa(reflected), strconv.Itoa(produced))
	}
	return nil
}

// splitDirectors breaks the comma-separated director column of DBv0 into a
// name set, stripping whitespace.
func splitDirectors(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
