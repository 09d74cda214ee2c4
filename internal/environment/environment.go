// Package environment owns the on-disk layout of the catalog: the data
// directory, the schema version metafile, the database file, and forward
// migration from recognized prior versions.
package environment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cesargomez89/movielog/internal/catalog"
	"github.com/cesargomez89/movielog/internal/config"
	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/logger"
	"github.com/cesargomez89/movielog/internal/migrate"
	"github.com/cesargomez89/movielog/internal/store"
)

// Engine bundles the open database and the catalog built on it, the way
// the rest of the application consumes them.
type Engine struct {
	DB       *store.DB
	Catalog  *catalog.Catalog
	Settings *store.SettingsRepo

	dataDir string
	log     *logger.Logger
}

// Open prepares the data directory, opens the current-version database and,
// when the persisted schema version differs from the running one, migrates
// the recognized prior database forward. The version metafile advances only
// after a fully successful migration, so a failed run retries on next start.
func Open(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	envLog := log.WithComponent("environment")

	dbDir := filepath.Join(cfg.DataDir, constants.SchemaVersion)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, constants.DirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		envLog.Info("created data directory", "path", dbDir)
	}

	versionPath := filepath.Join(cfg.DataDir, constants.VersionFileName)
	persisted, err := readVersionFile(versionPath)
	if err != nil {
		return nil, err
	}
	if persisted == "" {
		// Fresh install: record the running version.
		if err := writeVersionFile(versionPath, constants.SchemaVersion); err != nil {
			return nil, err
		}
		persisted = constants.SchemaVersion
		envLog.Info("fresh install", "schema_version", constants.SchemaVersion)
	}

	db, err := store.NewSQLiteDB(filepath.Join(dbDir, constants.DatabaseFileName))
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		DB:       db,
		Catalog:  catalog.New(db, log),
		Settings: store.NewSettingsRepo(db),
		dataDir:  cfg.DataDir,
		log:      envLog,
	}

	if persisted != constants.SchemaVersion {
		if err := eng.migrateFrom(persisted, versionPath); err != nil {
			db.Close() //nolint:errcheck // best-effort close on failed open
			return nil, err
		}
	}

	return eng, nil
}

// migrateFrom dispatches on the persisted version string. Only a finite set
// of prior versions is recognized.
func (e *Engine) migrateFrom(persisted, versionPath string) error {
	var reflected *migrate.Reflected
	var err error

	switch persisted {
	case constants.OldSchemaVersion0:
		reflected, err = migrate.FromV0(e.dataDir)
	default:
		return faults.New(faults.UnrecognizedOldVersion,
			"this prior schema version is not supported", persisted)
	}
	if err != nil {
		e.log.Error("migration failed", "from", persisted, "error", err)
		return err
	}

	ctx := context.Background()
	if err := e.Catalog.AddTags(ctx, reflected.Tags); err != nil {
		e.log.Error("migration failed inserting tags", "from", persisted, "error", err)
		return err
	}
	for i := range reflected.Movies {
		if err := e.Catalog.AddMovie(ctx, reflected.Movies[i]); err != nil {
			e.log.Error("migration failed inserting movie",
				"title", reflected.Movies[i].Title, "year", reflected.Movies[i].Year, "error", err)
			return err
		}
	}

	if err := writeVersionFile(versionPath, constants.SchemaVersion); err != nil {
		return err
	}
	e.log.Info("migrated database",
		"from", persisted, "to", constants.SchemaVersion,
		"movies", len(reflected.Movies), "tags", len(reflected.Tags))
	return nil
}

func (e *Engine) Close() error {
	return e.DB.Close()
}
