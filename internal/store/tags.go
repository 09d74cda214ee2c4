package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TagRow mirrors the tags table.
type TagRow struct {
	ID   int    `db:"id"`
	Text string `db:"text"`
}

// GetTagsByTexts fetches every existing tag whose text is in the set.
func GetTagsByTexts(e sqlx.Ext, texts []string) ([]TagRow, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, text FROM tags WHERE text IN (?)`, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to build tags query: %w", err)
	}
	var rows []TagRow
	err = sqlx.Select(e, &rows, e.Rebind(query), args...)
	return rows, err
}

// InsertTagIgnore creates a tag row unless one with the same text exists.
func InsertTagIgnore(e sqlx.Ext, text string) error {
	_, err := e.Exec(`INSERT OR IGNORE INTO tags (text) VALUES (?)`, text)
	return err
}

// RenameTag changes a tag's text. Returns the number of rows changed so the
// caller can distinguish a missing tag.
func RenameTag(e sqlx.Ext, oldText, newText string) (int64, error) {
	result, err := e.Exec(`UPDATE tags SET text = ? WHERE text = ?`, newText, oldText)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteTagByText removes a tag row; movie links cascade.
func DeleteTagByText(e sqlx.Ext, text string) error {
	_, err := e.Exec(`DELETE FROM tags WHERE text = ?`, text)
	return err
}

// ListTagTexts returns every tag text, sorted.
func ListTagTexts(q sqlx.Queryer) ([]string, error) {
	var texts []string
	err := sqlx.Select(q, &texts, `SELECT text FROM tags ORDER BY text`)
	return texts, err
}

// MatchTagTexts returns tag texts containing the substring, case-sensitive.
func MatchTagTexts(q sqlx.Queryer, substring string) ([]string, error) {
	var texts []string
	err := sqlx.Select(q, &texts, `SELECT text FROM tags WHERE instr(text, ?) > 0 ORDER BY text`, substring)
	return texts, err
}

// CountTags returns the number of tag rows.
func CountTags(q sqlx.Queryer) (int, error) {
	var count int
	err := sqlx.Get(q, &count, `SELECT COUNT(*) FROM tags`)
	return count, err
}

// MovieLinkSets loads the three link sets of a movie as name/text slices,
// each sorted.
func MovieLinkSets(q sqlx.Queryer, movieID int) (directors, stars, tags []string, err error) {
	err = sqlx.Select(q, &directors, `SELECT p.name FROM people p
		JOIN movie_directors md ON md.person_id = p.id
		WHERE md.movie_id = ? ORDER BY p.name`, movieID)
	if err != nil {
		return nil, nil, nil, err
	}
	err = sqlx.Select(q, &stars, `SELECT p.name FROM people p
		JOIN movie_stars ms ON ms.person_id = p.id
		WHERE ms.movie_id = ? ORDER BY p.name`, movieID)
	if err != nil {
		return nil, nil, nil, err
	}
	err = sqlx.Select(q, &tags, `SELECT t.text FROM tags t
		JOIN movie_tags mt ON mt.tag_id = t.id
		WHERE mt.movie_id = ? ORDER BY t.text`, movieID)
	if err != nil {
		return nil, nil, nil, err
	}
	return directors, stars, tags, nil
}
