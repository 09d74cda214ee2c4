// Package catalog is the sole path from application code to row mutations.
// Every public operation runs in a single transaction that commits entirely
// or leaves no effect, and maintains the no-orphan invariant over people.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/logger"
	"github.com/cesargomez89/movielog/internal/store"
)

type Catalog struct {
	db  *store.DB
	log *logger.Logger
}

func New(db *store.DB, log *logger.Logger) *Catalog {
	return &Catalog{
		db:  db,
		log: log.WithComponent("catalog"),
	}
}

// SelectMovie returns the MovieBag for the movie with the given natural key.
func (c *Catalog) SelectMovie(ctx context.Context, key domain.MovieKey) (*domain.MovieBag, error) {
	row, err := store.GetMovieByKey(c.db, key.Title, key.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.New(faults.MovieNotFound, "no movie matches this title and year",
			key.Title, strconv.Itoa(key.Year))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select movie: %w", err)
	}
	return c.bagFromRow(c.db, row)
}

// SelectAllMovies returns every movie; row order is not part of the contract.
func (c *Catalog) SelectAllMovies(ctx context.Context) ([]domain.MovieBag, error) {
	rows, err := store.ListMovies(c.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	bags := make([]domain.MovieBag, 0, len(rows))
	for i := range rows {
		bag, err := c.bagFromRow(c.db, &rows[i])
		if err != nil {
			return nil, err
		}
		bags = append(bags, *bag)
	}
	return bags, nil
}

// AddMovie creates a new movie row with exactly the supplied links.
func (c *Catalog) AddMovie(ctx context.Context, bag domain.MovieBag) error {
	if err := validateKey(bag.Title, bag.Year); err != nil {
		c.log.WithMovie(bag.Title, bag.Year).Error("add movie rejected", "error", err)
		return err
	}

	err := c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		exists, err := store.MovieKeyExists(tx, bag.Title, bag.Year, 0)
		if err != nil {
			return fmt.Errorf("failed to check movie key: %w", err)
		}
		if exists {
			return faults.New(faults.MovieExists, "a movie with this title and year is already in the catalog",
				bag.Title, strconv.Itoa(bag.Year))
		}

		now := time.Now().UTC()
		row := &store.MovieRow{
			Title:     bag.Title,
			Year:      bag.Year,
			Duration:  nullInt(bag.Duration),
			Synopsis:  nullString(bag.Synopsis),
			Notes:     nullString(bag.Notes),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.InsertMovie(tx, row); err != nil {
			return err
		}
		return c.resolveLinks(tx, row.ID, bag.Directors, bag.Stars, bag.Tags)
	})
	if err != nil {
		c.log.WithMovie(bag.Title, bag.Year).Error("add movie failed", "error", err)
	}
	return err
}

// EditMovie applies a partial update to the movie located by old. Link
// collections are replaced wholesale when present; people orphaned by the
// change are deleted before commit.
func (c *Catalog) EditMovie(ctx context.Context, old domain.MovieKey, patch domain.MoviePatch) error {
	err := c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		row, err := store.GetMovieByKey(tx, old.Title, old.Year)
		if errors.Is(err, sql.ErrNoRows) {
			return faults.New(faults.MovieNotFound, "no movie matches this title and year",
				old.Title, strconv.Itoa(old.Year))
		}
		if err != nil {
			return fmt.Errorf("failed to locate movie: %w", err)
		}

		if patch.Title != nil {
			row.Title = *patch.Title
		}
		if patch.Year != nil {
			row.Year = *patch.Year
		}
		if patch.Duration != nil {
			row.Duration = nullInt(*patch.Duration)
		}
		if patch.Synopsis != nil {
			row.Synopsis = nullString(*patch.Synopsis)
		}
		if patch.Notes != nil {
			row.Notes = nullString(*patch.Notes)
		}

		if err := validateKey(row.Title, row.Year); err != nil {
			return err
		}
		if patch.Title != nil || patch.Year != nil {
			collides, err := store.MovieKeyExists(tx, row.Title, row.Year, row.ID)
			if err != nil {
				return fmt.Errorf("failed to check movie key: %w", err)
			}
			if collides {
				return faults.New(faults.MovieExists, "a movie with this title and year is already in the catalog",
					row.Title, strconv.Itoa(row.Year))
			}
		}

		if err := store.UpdateMovie(tx, row); err != nil {
			return err
		}

		if patch.Directors == nil && patch.Stars == nil && patch.Tags == nil {
			return nil
		}

		previous, err := store.LinkedPersonIDs(tx, row.ID)
		if err != nil {
			return fmt.Errorf("failed to load linked people: %w", err)
		}

		directors, stars, tags, err := store.MovieLinkSets(tx, row.ID)
		if err != nil {
			return fmt.Errorf("failed to load link sets: %w", err)
		}
		if patch.Directors != nil {
			directors = *patch.Directors
		}
		if patch.Stars != nil {
			stars = *patch.Stars
		}
		if patch.Tags != nil {
			tags = *patch.Tags
		}

		if err := c.resolveLinks(tx, row.ID, directors, stars, tags); err != nil {
			return err
		}

		removed, err := store.DeleteOrphans(tx, previous)
		if err != nil {
			return fmt.Errorf("failed to sweep orphans: %w", err)
		}
		if removed > 0 {
			c.log.WithMovie(row.Title, row.Year).Info("removed orphaned people", "count", removed)
		}
		return nil
	})
	if err != nil {
		c.log.WithMovie(old.Title, old.Year).Error("edit movie failed", "error", err)
	}
	return err
}

// DeleteMovie removes the movie and its incident links, then sweeps the
// people it formerly referenced. A missing movie is a silent no-op, except
// that any supplied director or star names are still swept.
func (c *Catalog) DeleteMovie(ctx context.Context, bag domain.MovieBag) error {
	return c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		row, err := store.GetMovieByKey(tx, bag.Title, bag.Year)
		if errors.Is(err, sql.ErrNoRows) {
			return c.sweepByNames(tx, append(bag.Directors, bag.Stars...))
		}
		if err != nil {
			return fmt.Errorf("failed to locate movie: %w", err)
		}

		candidates, err := store.LinkedPersonIDs(tx, row.ID)
		if err != nil {
			return fmt.Errorf("failed to load linked people: %w", err)
		}
		if err := store.DeleteMovie(tx, row.ID); err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}
		removed, err := store.DeleteOrphans(tx, candidates)
		if err != nil {
			return fmt.Errorf("failed to sweep orphans: %w", err)
		}
		if removed > 0 {
			c.log.WithMovie(row.Title, row.Year).Info("removed orphaned people", "count", removed)
		}
		return nil
	})
}

// DeleteAllOrphans is the maintenance entry point: every person with zero
// director links and zero star links is removed.
func (c *Catalog) DeleteAllOrphans(ctx context.Context) error {
	return c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		removed, err := store.DeleteAllOrphans(tx)
		if err != nil {
			return fmt.Errorf("failed to sweep orphans: %w", err)
		}
		c.log.Info("orphan sweep complete", "count", removed)
		return nil
	})
}

// resolveLinks rewrites the movie's three link collections, creating people
// on demand and requiring every tag text to resolve.
func (c *Catalog) resolveLinks(tx *sqlx.Tx, movieID int, directors, stars, tags []string) error {
	// Empty name strings are silently dropped before person creation.
	directorSet := domain.NormalizeSet(directors)
	starSet := domain.NormalizeSet(stars)
	union := domain.NormalizeSet(append(append([]string{}, directorSet...), starSet...))

	existing, err := store.GetPeopleByNames(tx, union)
	if err != nil {
		return fmt.Errorf("failed to fetch people: %w", err)
	}
	idsByName := make(map[string]int, len(union))
	for _, p := range existing {
		idsByName[p.Name] = p.ID
	}
	for _, name := range union {
		if _, ok := idsByName[name]; ok {
			continue
		}
		id, err := store.InsertPerson(tx, name)
		if err != nil {
			return err
		}
		idsByName[name] = id
	}

	directorIDs := make([]int, 0, len(directorSet))
	for _, name := range directorSet {
		directorIDs = append(directorIDs, idsByName[name])
	}
	starIDs := make([]int, 0, len(starSet))
	for _, name := range starSet {
		starIDs = append(starIDs, idsByName[name])
	}

	if err := store.ReplaceDirectors(tx, movieID, directorIDs); err != nil {
		return err
	}
	if err := store.ReplaceStars(tx, movieID, starIDs); err != nil {
		return err
	}

	tagIDs, err := resolveTagIDs(tx, tags)
	if err != nil {
		return err
	}
	return store.ReplaceMovieTags(tx, movieID, tagIDs)
}

// resolveTagIDs maps requested tag texts to ids, failing the whole
// operation when any text does not resolve. The empty string is never a
// valid tag. Repeated texts collapse to one link; the texts themselves are
// matched verbatim, so a whitespace-padded variant still fails.
func resolveTagIDs(tx *sqlx.Tx, tags []string) ([]int, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	unique := make([]string, 0, len(tags))
	for _, text := range tags {
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		unique = append(unique, text)
	}

	rows, err := store.GetTagsByTexts(tx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	idsByText := make(map[string]int, len(rows))
	for _, t := range rows {
		idsByText[t.Text] = t.ID
	}

	var missing []string
	ids := make([]int, 0, len(unique))
	for _, text := range unique {
		id, ok := idsByText[text]
		if !ok {
			missing = append(missing, text)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, faults.New(faults.TagNotFound, "these tags are not in the catalog", missing...)
	}
	return ids, nil
}

// sweepByNames resolves names to person rows and removes any that are
// unreferenced.
func (c *Catalog) sweepByNames(tx *sqlx.Tx, names []string) error {
	people, err := store.GetPeopleByNames(tx, domain.NormalizeSet(names))
	if err != nil {
		return fmt.Errorf("failed to fetch people: %w", err)
	}
	ids := make([]int, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	_, err = store.DeleteOrphans(tx, ids)
	return err
}

func (c *Catalog) bagFromRow(q sqlx.Queryer, row *store.MovieRow) (*domain.MovieBag, error) {
	directors, stars, tags, err := store.MovieLinkSets(q, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link sets: %w", err)
	}
	return &domain.MovieBag{
		ID:        row.ID,
		Title:     row.Title,
		Year:      row.Year,
		Duration:  int(row.Duration.Int64),
		Synopsis:  row.Synopsis.String,
		Notes:     row.Notes.String,
		Directors: directors,
		Stars:     stars,
		Tags:      tags,
		Created:   row.CreatedAt,
		Updated:   row.UpdatedAt,
	}, nil
}

func validateKey(title string, year int) error {
	if title == "" {
		return faults.New(faults.InvalidTitle, "movie title cannot be empty")
	}
	if year <= constants.YearLowerBound || year >= constants.YearUpperBound {
		return faults.New(faults.InvalidYear, "year must fall between 1877 and 10000 exclusive",
			strconv.Itoa(year))
	}
	return nil
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
