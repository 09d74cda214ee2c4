package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PersonRow mirrors the people table.
type PersonRow struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

// GetPeopleByNames fetches every existing person whose name is in the set,
// in one statement.
func GetPeopleByNames(e sqlx.Ext, names []string) ([]PersonRow, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM people WHERE name IN (?)`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build people query: %w", err)
	}
	var rows []PersonRow
	err = sqlx.Select(e, &rows, e.Rebind(query), args...)
	return rows, err
}

// InsertPerson creates a person row and returns its id.
func InsertPerson(e sqlx.Ext, name string) (int, error) {
	rows, err := e.Query(`INSERT INTO people (name) VALUES (?) RETURNING id`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert person %q: %w", name, err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	var id int
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan person id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating returning rows: %w", err)
	}
	return id, nil
}

// LinkedPersonIDs returns the ids of every person currently linked to the
// movie as director or star.
func LinkedPersonIDs(q sqlx.Queryer, movieID int) ([]int, error) {
	var ids []int
	query := `SELECT person_id FROM movie_directors WHERE movie_id = ?
		UNION
		SELECT person_id FROM movie_stars WHERE movie_id = ?`
	err := sqlx.Select(q, &ids, query, movieID, movieID)
	return ids, err
}

// ReplaceDirectors rewrites the movie's director link set.
func ReplaceDirectors(e sqlx.Ext, movieID int, personIDs []int) error {
	return replaceLinks(e, "movie_directors", "person_id", movieID, personIDs)
}

// ReplaceStars rewrites the movie's star link set.
func ReplaceStars(e sqlx.Ext, movieID int, personIDs []int) error {
	return replaceLinks(e, "movie_stars", "person_id", movieID, personIDs)
}

// ReplaceMovieTags rewrites the movie's tag link set.
func ReplaceMovieTags(e sqlx.Ext, movieID int, tagIDs []int) error {
	return replaceLinks(e, "movie_tags", "tag_id", movieID, tagIDs)
}

func replaceLinks(e sqlx.Ext, table, column string, movieID int, ids []int) error {
	if _, err := e.Exec(fmt.Sprintf(`DELETE FROM %s WHERE movie_id = ?`, table), movieID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, id := range ids {
		_, err := e.Exec(fmt.Sprintf(`INSERT INTO %s (movie_id, %s) VALUES (?, ?)`, table, column), movieID, id)
		if err != nil {
			return fmt.Errorf("failed to link %s %d: %w", column, id, err)
		}
	}
	return nil
}

// DeleteOrphans removes every candidate person that has zero remaining
// director links and zero remaining star links. Returns the count removed.
func DeleteOrphans(e sqlx.Ext, candidateIDs []int) (int64, error) {
	if len(candidateIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM people WHERE id IN (?)
		AND id NOT IN (SELECT person_id FROM movie_directors)
		AND id NOT IN (SELECT person_id FROM movie_stars)`, candidateIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to build orphan delete: %w", err)
	}
	result, err := e.Exec(e.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteAllOrphans removes every person referenced by no movie at all.
func DeleteAllOrphans(e sqlx.Ext) (int64, error) {
	result, err := e.Exec(`DELETE FROM people
		WHERE id NOT IN (SELECT person_id FROM movie_directors)
		  AND id NOT IN (SELECT person_id FROM movie_stars)`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListPersonNames returns every person name, sorted.
func ListPersonNames(q sqlx.Queryer) ([]string, error) {
	var names []string
	err := sqlx.Select(q, &names, `SELECT name FROM people ORDER BY name`)
	return names, err
}
