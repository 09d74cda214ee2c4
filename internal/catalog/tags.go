package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/store"
)

// SelectAllTags returns every tag text.
func (c *Catalog) SelectAllTags(ctx context.Context) ([]string, error) {
	texts, err := store.ListTagTexts(c.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return texts, nil
}

// MatchTags returns the tag texts containing the substring.
func (c *Catalog) MatchTags(ctx context.Context, substring string) ([]string, error) {
	texts, err := store.MatchTagTexts(c.db, substring)
	if err != nil {
		return nil, fmt.Errorf("failed to match tags: %w", err)
	}
	return texts, nil
}

// AddTag creates the tag if absent. Adding an existing tag is a no-op;
// the empty string is silently ignored.
func (c *Catalog) AddTag(ctx context.Context, text string) error {
	return c.AddTags(ctx, []string{text})
}

// AddTags creates every absent tag in the set in one transaction.
func (c *Catalog) AddTags(ctx context.Context, texts []string) error {
	return c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		for _, text := range texts {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if err := store.InsertTagIgnore(tx, text); err != nil {
				return fmt.Errorf("failed to add tag %q: %w", text, err)
			}
		}
		return nil
	})
}

// EditTag renames a tag. Renaming to an existing text fails TagExists;
// a missing source tag fails TagNotFound.
func (c *Catalog) EditTag(ctx context.Context, oldText, newText string) error {
	err := c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if newText == "" {
			return faults.New(faults.TagNotFound, "the empty string is not a valid tag", oldText)
		}
		existing, err := store.GetTagsByTexts(tx, []string{newText})
		if err != nil {
			return fmt.Errorf("failed to check tag: %w", err)
		}
		if len(existing) > 0 {
			return faults.New(faults.TagExists, "a tag with this text already exists", newText)
		}

		changed, err := store.RenameTag(tx, oldText, newText)
		if err != nil {
			return fmt.Errorf("failed to rename tag: %w", err)
		}
		if changed == 0 {
			return faults.New(faults.TagNotFound, "this tag is not in the catalog", oldText)
		}
		return nil
	})
	if err != nil {
		c.log.Error("edit tag failed", "old", oldText, "new", newText, "error", err)
	}
	return err
}

// DeleteTag removes a tag and its movie links. Absent tags are a silent
// no-op.
func (c *Catalog) DeleteTag(ctx context.Context, text string) error {
	return c.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return store.DeleteTagByText(tx, text)
	})
}
