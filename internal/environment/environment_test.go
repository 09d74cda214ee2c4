package environment

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/movielog/internal/config"
	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{DataDir: t.TempDir()}
}

// seedV0Database builds a prior-version database under dataDir the way the
// old program laid it out.
func seedV0Database(t *testing.T, dataDir string, movies []string) {
	t.Helper()
	v0Dir := filepath.Join(dataDir, constants.OldSchemaVersion0)
	if err := os.MkdirAll(v0Dir, 0o755); err != nil {
		t.Fatalf("Failed to create v0 dir: %v", err)
	}

	db, err := sqlx.Open("sqlite", filepath.Join(v0Dir, constants.DatabaseFileName))
	if err != nil {
		t.Fatalf("Failed to open v0 db: %v", err)
	}
	defer db.Close()

	schema := `
	CREATE TABLE movies (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		director TEXT,
		minutes INTEGER,
		year INTEGER NOT NULL,
		notes TEXT
	);
	CREATE TABLE tags (
		id INTEGER PRIMARY KEY,
		tag TEXT NOT NULL UNIQUE
	);
	CREATE TABLE movie_tag (
		movie_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to apply v0 schema: %v", err)
	}
	for _, stmt := range movies {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to seed v0 db: %v", err)
		}
	}

	versionPath := filepath.Join(dataDir, constants.VersionFileName)
	if err := writeVersionFile(versionPath, constants.OldSchemaVersion0); err != nil {
		t.Fatalf("Failed to write version metafile: %v", err)
	}
}

func TestOpen_FreshInstall(t *testing.T) {
	cfg := testConfig(t)

	eng, err := Open(cfg, logger.Default())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer eng.Close()

	// The layout exists: version metafile plus the current database dir.
	version, err := readVersionFile(filepath.Join(cfg.DataDir, constants.VersionFileName))
	if err != nil {
		t.Fatalf("readVersionFile failed: %v", err)
	}
	if version != constants.SchemaVersion {
		t.Errorf("Expected %s, got %s", constants.SchemaVersion, version)
	}
	dbPath := filepath.Join(cfg.DataDir, constants.SchemaVersion, constants.DatabaseFileName)
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("Expected database file at %s: %v", dbPath, err)
	}

	// The fresh catalog is empty and usable.
	movies, err := eng.Catalog.SelectAllMovies(context.Background())
	if err != nil {
		t.Fatalf("SelectAllMovies failed: %v", err)
	}
	if len(movies) != 0 {
		t.Errorf("Expected empty catalog, got %d movies", len(movies))
	}
}

func TestOpen_Reopen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	eng, err := Open(cfg, logger.Default())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := eng.Catalog.AddMovie(ctx, domain.MovieBag{Title: "Rear Window", Year: 1954}); err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(cfg, logger.Default())
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	movies, err := reopened.Catalog.SelectAllMovies(ctx)
	if err != nil {
		t.Fatalf("SelectAllMovies failed: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Rear Window" {
		t.Errorf("Expected the persisted movie, got %v", movies)
	}
}

func TestOpen_MigratesFromV0(t *testing.T) {
	cfg := testConfig(t)
	seedV0Database(t, cfg.DataDir, []string{
		`INSERT INTO tags (id, tag) VALUES (1, 'thriller'), (2, 'noir')`,
		`INSERT INTO movies (id, title, director, minutes, year, notes) VALUES
			(1, 'Rear Window', 'Alfred Hitchcock', 112, 1954, 'A photographer watches his neighbors.'),
			(2, 'The Third Man', ' Carol Reed , Orson Welles ', NULL, 1949, NULL)`,
		`INSERT INTO movie_tag (movie_id, tag_id) VALUES (1, 1), (2, 2)`,
	})

	eng, err := Open(cfg, logger.Default())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer eng.Close()

	ctx := context.Background()
	first, err := eng.Catalog.SelectMovie(ctx, domain.MovieKey{Title: "Rear Window", Year: 1954})
	if err != nil {
		t.Fatalf("SelectMovie failed: %v", err)
	}
	if first.Duration != 112 {
		t.Errorf("Expected duration 112, got %d", first.Duration)
	}
	// The old notes column lands in both fields.
	if first.Notes != "A photographer watches his neighbors." || first.Synopsis != first.Notes {
		t.Errorf("Expected notes copied to synopsis, got %q / %q", first.Notes, first.Synopsis)
	}
	if !reflect.DeepEqual(first.Tags, []string{"thriller"}) {
		t.Errorf("Expected [thriller], got %v", first.Tags)
	}

	second, err := eng.Catalog.SelectMovie(ctx, domain.MovieKey{Title: "The Third Man", Year: 1949})
	if err != nil {
		t.Fatalf("SelectMovie failed: %v", err)
	}
	// The comma-separated director column splits into trimmed names.
	if !reflect.DeepEqual(second.Directors, []string{"Carol Reed", "Orson Welles"}) {
		t.Errorf("Expected split directors, got %v", second.Directors)
	}

	tags, _ := eng.Catalog.SelectAllTags(ctx)
	if !reflect.DeepEqual(tags, []string{"noir", "thriller"}) {
		t.Errorf("Expected both tags migrated, got %v", tags)
	}

	// The metafile advanced.
	version, _ := readVersionFile(filepath.Join(cfg.DataDir, constants.VersionFileName))
	if version != constants.SchemaVersion {
		t.Errorf("Expected %s after migration, got %s", constants.SchemaVersion, version)
	}
}

func TestOpen_MigrationFailureKeepsMetafile(t *testing.T) {
	cfg := testConfig(t)
	// Year 42 violates the year constraint, so the migration cannot finish.
	seedV0Database(t, cfg.DataDir, []string{
		`INSERT INTO movies (id, title, director, minutes, year, notes) VALUES
			(1, 'Broken', NULL, NULL, 42, NULL)`,
	})

	if _, err := Open(cfg, logger.Default()); err == nil {
		t.Fatal("Expected migration to fail")
	}

	// The metafile still names the old version, so the next start retries.
	version, err := readVersionFile(filepath.Join(cfg.DataDir, constants.VersionFileName))
	if err != nil {
		t.Fatalf("readVersionFile failed: %v", err)
	}
	if version != constants.OldSchemaVersion0 {
		t.Errorf("Expected %s kept, got %s", constants.OldSchemaVersion0, version)
	}
}

func TestOpen_UnrecognizedVersion(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	versionPath := filepath.Join(cfg.DataDir, constants.VersionFileName)
	if err := writeVersionFile(versionPath, "DBv9"); err != nil {
		t.Fatalf("writeVersionFile failed: %v", err)
	}

	_, err := Open(cfg, logger.Default())
	if !faults.Is(err, faults.UnrecognizedOldVersion) {
		t.Fatalf("Expected UnrecognizedOldVersion, got %v", err)
	}
	if got := faults.ContextOf(err); !reflect.DeepEqual(got, []string{"DBv9"}) {
		t.Errorf("Expected context [DBv9], got %v", got)
	}
}

func TestVersionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, constants.VersionFileName)

	// Missing file reads as empty, not an error.
	version, err := readVersionFile(path)
	if err != nil {
		t.Fatalf("readVersionFile failed: %v", err)
	}
	if version != "" {
		t.Errorf("Expected empty version, got %q", version)
	}

	if err := writeVersionFile(path, "DBv1"); err != nil {
		t.Fatalf("writeVersionFile failed: %v", err)
	}
	version, err = readVersionFile(path)
	if err != nil {
		t.Fatalf("readVersionFile failed: %v", err)
	}
	if version != "DBv1" {
		t.Errorf("Expected DBv1, got %q", version)
	}

	// Overwrite replaces cleanly and leaves no temp files behind.
	if err := writeVersionFile(path, "DBv2"); err != nil {
		t.Fatalf("writeVersionFile failed: %v", err)
	}
	version, _ = readVersionFile(path)
	if version != "DBv2" {
		t.Errorf("Expected DBv2, got %q", version)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the metafile, got %v", names)
	}

	// Garbage content is an error, not a silent fresh install.
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := readVersionFile(path); err == nil {
		t.Error("Expected error for malformed metafile")
	}
}
