package store

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustInsertMovie(t *testing.T, db *DB, title string, year int) *MovieRow {
	t.Helper()
	now := time.Now().UTC()
	row := &MovieRow{Title: title, Year: year, CreatedAt: now, UpdatedAt: now}
	if err := InsertMovie(db, row); err != nil {
		t.Fatalf("InsertMovie(%q) failed: %v", title, err)
	}
	if row.ID == 0 {
		t.Fatalf("Expected non-zero id for %q", title)
	}
	return row
}

func TestDB_MovieLifecycle(t *testing.T) {
	db := setupTestDB(t)

	row := &MovieRow{
		Title:     "Rear Window",
		Year:      1954,
		Duration:  sql.NullInt64{Int64: 112, Valid: true},
		Synopsis:  sql.NullString{String: "A photographer watches his neighbors.", Valid: true},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := InsertMovie(db, row); err != nil {
		t.Fatalf("InsertMovie failed: %v", err)
	}

	fetched, err := GetMovieByKey(db, "Rear Window", 1954)
	if err != nil {
		t.Fatalf("GetMovieByKey failed: %v", err)
	}
	if fetched.ID != row.ID {
		t.Errorf("Expected id %d, got %d", row.ID, fetched.ID)
	}
	if fetched.Duration.Int64 != 112 {
		t.Errorf("Expected duration 112, got %d", fetched.Duration.Int64)
	}

	// Missing key passes sql.ErrNoRows through.
	if _, err := GetMovieByKey(db, "Vertigo", 1958); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	exists, err := MovieKeyExists(db, "Rear Window", 1954, 0)
	if err != nil {
		t.Fatalf("MovieKeyExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist")
	}
	// Excluding the row's own id means no collision.
	exists, _ = MovieKeyExists(db, "Rear Window", 1954, row.ID)
	if exists {
		t.Error("Expected no collision when excluding own id")
	}

	fetched.Title = "Rear Window (restored)"
	if err := UpdateMovie(db, fetched); err != nil {
		t.Fatalf("UpdateMovie failed: %v", err)
	}
	updated, _ := GetMovieByKey(db, "Rear Window (restored)", 1954)
	if updated == nil {
		t.Fatal("Expected renamed movie to be fetchable")
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Error("Expected updated_at to advance past created_at")
	}

	if err := UpdateMovie(db, &MovieRow{ID: 9999, Title: "x", Year: 2000}); err == nil {
		t.Error("Expected update of missing row to fail")
	}

	if err := DeleteMovie(db, row.ID); err != nil {
		t.Fatalf("DeleteMovie failed: %v", err)
	}
	count, _ := CountMovies(db)
	if count != 0 {
		t.Errorf("Expected 0 movies, got %d", count)
	}
}

func TestDB_MovieConstraints(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	tests := []struct {
		name string
		row  MovieRow
	}{
		{name: "empty title", row: MovieRow{Title: "", Year: 1954}},
		{name: "year at lower bound", row: MovieRow{Title: "a", Year: 1877}},
		{name: "year at upper bound", row: MovieRow{Title: "a", Year: 10000}},
		{name: "zero duration", row: MovieRow{Title: "a", Year: 1954, Duration: sql.NullInt64{Int64: 0, Valid: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.row.CreatedAt, tt.row.UpdatedAt = now, now
			if err := InsertMovie(db, &tt.row); err == nil {
				t.Error("Expected constraint violation")
			}
		})
	}

	// Duplicate natural key.
	mustInsertMovie(t, db, "Rear Window", 1954)
	dup := &MovieRow{Title: "Rear Window", Year: 1954, CreatedAt: now, UpdatedAt: now}
	if err := InsertMovie(db, dup); err == nil {
		t.Error("Expected unique violation on duplicate key")
	}
	// Same title, different year is fine.
	mustInsertMovie(t, db, "Rear Window", 1998)
}

func TestDB_FilterMovies(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	rows := []MovieRow{
		{Title: "Rear Window", Year: 1954, Synopsis: sql.NullString{String: "a courtyard story", Valid: true}},
		{Title: "The Window", Year: 1949, Notes: sql.NullString{String: "rewatch", Valid: true}},
		{Title: "Vertigo", Year: 1958},
	}
	for i := range rows {
		rows[i].CreatedAt, rows[i].UpdatedAt = now, now
		if err := InsertMovie(db, &rows[i]); err != nil {
			t.Fatalf("InsertMovie failed: %v", err)
		}
	}

	got, err := FilterMovies(db, "Window", "", "")
	if err != nil {
		t.Fatalf("FilterMovies failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 matches for Window, got %d", len(got))
	}

	// Substring match is case-sensitive.
	got, _ = FilterMovies(db, "window", "", "")
	if len(got) != 0 {
		t.Errorf("Expected 0 matches for lowercase window, got %d", len(got))
	}

	got, _ = FilterMovies(db, "", "courtyard", "")
	if len(got) != 1 || got[0].Title != "Rear Window" {
		t.Errorf("Expected Rear Window via synopsis, got %v", got)
	}

	got, _ = FilterMovies(db, "", "", "rewatch")
	if len(got) != 1 || got[0].Title != "The Window" {
		t.Errorf("Expected The Window via notes, got %v", got)
	}

	// No criteria returns everything.
	got, _ = FilterMovies(db, "", "", "")
	if len(got) != 3 {
		t.Errorf("Expected all 3 movies, got %d", len(got))
	}
}

func TestDB_PeopleAndLinks(t *testing.T) {
	db := setupTestDB(t)
	movie := mustInsertMovie(t, db, "Rear Window", 1954)

	hitchID, err := InsertPerson(db, "Alfred Hitchcock")
	if err != nil {
		t.Fatalf("InsertPerson failed: %v", err)
	}
	stewartID, _ := InsertPerson(db, "James Stewart")
	kellyID, _ := InsertPerson(db, "Grace Kelly")

	people, err := GetPeopleByNames(db, []string{"Alfred Hitchcock", "Grace Kelly", "Nobody"})
	if err != nil {
		t.Fatalf("GetPeopleByNames failed: %v", err)
	}
	if len(people) != 2 {
		t.Errorf("Expected 2 people, got %d", len(people))
	}

	if err := ReplaceDirectors(db, movie.ID, []int{hitchID}); err != nil {
		t.Fatalf("ReplaceDirectors failed: %v", err)
	}
	if err := ReplaceStars(db, movie.ID, []int{stewartID, kellyID}); err != nil {
		t.Fatalf("ReplaceStars failed: %v", err)
	}

	ids, err := LinkedPersonIDs(db, movie.ID)
	if err != nil {
		t.Fatalf("LinkedPersonIDs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 linked people, got %d", len(ids))
	}

	directors, stars, _, err := MovieLinkSets(db, movie.ID)
	if err != nil {
		t.Fatalf("MovieLinkSets failed: %v", err)
	}
	if !reflect.DeepEqual(directors, []string{"Alfred Hitchcock"}) {
		t.Errorf("Expected [Alfred Hitchcock], got %v", directors)
	}
	if !reflect.DeepEqual(stars, []string{"Grace Kelly", "James Stewart"}) {
		t.Errorf("Expected sorted stars, got %v", stars)
	}

	// Replacing shrinks the set; the old links go away.
	if err := ReplaceStars(db, movie.ID, []int{kellyID}); err != nil {
		t.Fatalf("ReplaceStars failed: %v", err)
	}
	_, stars, _, _ = MovieLinkSets(db, movie.ID)
	if !reflect.DeepEqual(stars, []string{"Grace Kelly"}) {
		t.Errorf("Expected [Grace Kelly], got %v", stars)
	}
}

func TestDB_DeleteOrphans(t *testing.T) {
	db := setupTestDB(t)
	movie := mustInsertMovie(t, db, "Rear Window", 1954)

	hitchID, _ := InsertPerson(db, "Alfred Hitchcock")
	loose1, _ := InsertPerson(db, "Nobody One")
	loose2, _ := InsertPerson(db, "Nobody Two")
	if err := ReplaceDirectors(db, movie.ID, []int{hitchID}); err != nil {
		t.Fatalf("ReplaceDirectors failed: %v", err)
	}

	// Linked candidates survive, unlinked ones go.
	removed, err := DeleteOrphans(db, []int{hitchID, loose1})
	if err != nil {
		t.Fatalf("DeleteOrphans failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	names, _ := ListPersonNames(db)
	if !reflect.DeepEqual(names, []string{"Alfred Hitchcock", "Nobody Two"}) {
		t.Errorf("Expected [Alfred Hitchcock, Nobody Two], got %v", names)
	}

	removed, err = DeleteAllOrphans(db)
	if err != nil {
		t.Fatalf("DeleteAllOrphans failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	_ = loose2

	// Deleting the movie cascades its links, leaving the director orphaned.
	if err := DeleteMovie(db, movie.ID); err != nil {
		t.Fatalf("DeleteMovie failed: %v", err)
	}
	removed, _ = DeleteAllOrphans(db)
	if removed != 1 {
		t.Errorf("Expected the director to become an orphan, got %d removed", removed)
	}
}

func TestDB_Tags(t *testing.T) {
	db := setupTestDB(t)

	for _, text := range []string{"noir", "thriller", "noir"} {
		if err := InsertTagIgnore(db, text); err != nil {
			t.Fatalf("InsertTagIgnore(%q) failed: %v", text, err)
		}
	}
	texts, err := ListTagTexts(db)
	if err != nil {
		t.Fatalf("ListTagTexts failed: %v", err)
	}
	if !reflect.DeepEqual(texts, []string{"noir", "thriller"}) {
		t.Errorf("Expected [noir thriller], got %v", texts)
	}

	rows, err := GetTagsByTexts(db, []string{"noir", "missing"})
	if err != nil {
		t.Fatalf("GetTagsByTexts failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Text != "noir" {
		t.Errorf("Expected [noir], got %v", rows)
	}

	matched, _ := MatchTagTexts(db, "ill")
	if !reflect.DeepEqual(matched, []string{"thriller"}) {
		t.Errorf("Expected [thriller], got %v", matched)
	}
	// Case-sensitive.
	matched, _ = MatchTagTexts(db, "Noir")
	if len(matched) != 0 {
		t.Errorf("Expected no match for Noir, got %v", matched)
	}

	changed, err := RenameTag(db, "noir", "film noir")
	if err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("Expected 1 row changed, got %d", changed)
	}
	changed, _ = RenameTag(db, "absent", "whatever")
	if changed != 0 {
		t.Errorf("Expected 0 rows changed for absent tag, got %d", changed)
	}

	if err := DeleteTagByText(db, "film noir"); err != nil {
		t.Fatalf("DeleteTagByText failed: %v", err)
	}
	count, _ := CountTags(db)
	if count != 1 {
		t.Errorf("Expected 1 tag, got %d", count)
	}
}

func TestDB_TagLinkCascade(t *testing.T) {
	db := setupTestDB(t)
	movie := mustInsertMovie(t, db, "Rear Window", 1954)

	if err := InsertTagIgnore(db, "thriller"); err != nil {
		t.Fatalf("InsertTagIgnore failed: %v", err)
	}
	rows, _ := GetTagsByTexts(db, []string{"thriller"})
	if err := ReplaceMovieTags(db, movie.ID, []int{rows[0].ID}); err != nil {
		t.Fatalf("ReplaceMovieTags failed: %v", err)
	}

	// Deleting the tag removes the link but not the movie.
	if err := DeleteTagByText(db, "thriller"); err != nil {
		t.Fatalf("DeleteTagByText failed: %v", err)
	}
	_, _, tags, err := MovieLinkSets(db, movie.ID)
	if err != nil {
		t.Fatalf("MovieLinkSets failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("Expected no tags after delete, got %v", tags)
	}
	count, _ := CountMovies(db)
	if count != 1 {
		t.Errorf("Expected movie to survive, got %d rows", count)
	}
}

func TestDB_Settings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db)

	// Missing key reads as empty.
	val, err := repo.Get(SettingTMDBAPIKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected empty value, got %q", val)
	}

	if err := repo.Set(SettingTMDBAPIKey, "secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(SettingTMDBAPIKey, "rotated"); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}
	val, _ = repo.Get(SettingTMDBAPIKey)
	if val != "rotated" {
		t.Errorf("Expected rotated, got %q", val)
	}

	if err := repo.Delete(SettingTMDBAPIKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	val, _ = repo.Get(SettingTMDBAPIKey)
	if val != "" {
		t.Errorf("Expected empty after delete, got %q", val)
	}
}

func TestDB_Cache(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SetCache("k", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("SetCache failed: %v", err)
	}
	data, err := db.GetCache("k")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Expected cached payload, got %s", data)
	}

	// Expired entries read as absent.
	if err := db.SetCache("old", []byte("x"), -time.Minute); err != nil {
		t.Fatalf("SetCache failed: %v", err)
	}
	data, err = db.GetCache("old")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected expired entry to be absent, got %s", data)
	}

	if err := db.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	data, _ = db.GetCache("k")
	if data != nil {
		t.Errorf("Expected cleared cache, got %s", data)
	}
}
