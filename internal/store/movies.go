package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MovieRow mirrors the movies table.
type MovieRow struct {
	ID        int            `db:"id"`
	Title     string         `db:"title"`
	Year      int            `db:"year"`
	Duration  sql.NullInt64  `db:"duration"`
	Synopsis  sql.NullString `db:"synopsis"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// GetMovieByKey fetches the single movie with the given natural key.
// sql.ErrNoRows passes through for the caller to categorize.
func GetMovieByKey(q sqlx.Queryer, title string, year int) (*MovieRow, error) {
	var row MovieRow
	err := sqlx.Get(q, &row, `SELECT * FROM movies WHERE title = ? AND year = ?`, title, year)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MovieKeyExists reports whether a movie with the natural key exists,
// optionally excluding one row id (for rename collision checks).
func MovieKeyExists(q sqlx.Queryer, title string, year, excludeID int) (bool, error) {
	var count int
	err := sqlx.Get(q, &count,
		`SELECT COUNT(*) FROM movies WHERE title = ? AND year = ? AND id <> ?`,
		title, year, excludeID)
	return count > 0, err
}

// InsertMovie inserts the row and fills in its id.
func InsertMovie(e sqlx.Ext, row *MovieRow) error {
	query := `INSERT INTO movies (title, year, duration, synopsis, notes, created_at, updated_at)
		VALUES (:title, :year, :duration, :synopsis, :notes, :created_at, :updated_at)
		RETURNING id`

	rows, err := sqlx.NamedQuery(e, query, row)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	if rows.Next() {
		if err := rows.Scan(&row.ID); err != nil {
			return fmt.Errorf("failed to scan movie id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}
	return nil
}

// UpdateMovie rewrites the scalar columns of the row and bumps updated_at.
func UpdateMovie(e sqlx.Ext, row *MovieRow) error {
	row.UpdatedAt = time.Now().UTC()

	query := `UPDATE movies SET
		title = :title, year = :year, duration = :duration,
		synopsis = :synopsis, notes = :notes, updated_at = :updated_at
	WHERE id = :id`

	result, err := sqlx.NamedExec(e, query, row)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("movie with id %d not found", row.ID)
	}
	return nil
}

// DeleteMovie removes the row; incident links go with it via cascade.
func DeleteMovie(e sqlx.Ext, id int) error {
	_, err := e.Exec(`DELETE FROM movies WHERE id = ?`, id)
	return err
}

// ListMovies returns all movie rows ordered by natural key.
func ListMovies(q sqlx.Queryer) ([]MovieRow, error) {
	var rows []MovieRow
	err := sqlx.Select(q, &rows, `SELECT * FROM movies ORDER BY title, year`)
	return rows, err
}

// FilterMovies prefilters rows on case-sensitive substring criteria.
// SQLite LIKE folds ASCII case, so instr() is used instead. Empty
// arguments do not constrain.
func FilterMovies(q sqlx.Queryer, title, synopsis, notes string) ([]MovieRow, error) {
	var rows []MovieRow
	query := `SELECT * FROM movies
		WHERE (? = '' OR instr(title, ?) > 0)
		  AND (? = '' OR instr(COALESCE(synopsis, ''), ?) > 0)
		  AND (? = '' OR instr(COALESCE(notes, ''), ?) > 0)
		ORDER BY title, year`
	err := sqlx.Select(q, &rows, query, title, title, synopsis, synopsis, notes, notes)
	return rows, err
}

// CountMovies returns the number of movie rows.
func CountMovies(q sqlx.Queryer) (int, error) {
	var count int
	err := sqlx.Get(q, &count, `SELECT COUNT(*) FROM movies`)
	return count, err
}
