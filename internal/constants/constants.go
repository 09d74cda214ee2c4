// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort        = "8080"
	DefaultDataDir     = "Movie Data"
	DefaultProgramName = "movielog"
	DefaultTMDBBaseURL = "https://api.themoviedb.org/3"
)

// Schema versioning
const (
	SchemaVersion     = "DBv1"
	OldSchemaVersion0 = "DBv0"
	VersionFileName   = "schema_version.json"
	DatabaseFileName  = "movie_database.sqlite3"
)

// Movie constraints. Years must fall strictly between the bounds.
const (
	YearLowerBound = 1877
	YearUpperBound = 10000
)

// Lookup pipeline timing
const (
	DebounceInterval    = 500 * time.Millisecond
	ConsumerInterval    = 40 * time.Millisecond
	ProviderConnTimeout = 2 * time.Second
	ProviderReadTimeout = 5 * time.Second
	LookupConcurrency   = 2
)

// Provider client
const (
	MinRequestInterval = 250 * time.Millisecond
	DefaultRetryCount  = 3
	DefaultRetryBase   = 1 * time.Second
	DefaultCacheTTL    = 12 * time.Hour
	CrewJobDirector    = "Director"
)

// File permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)
