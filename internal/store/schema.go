package store

const Schema = `
CREATE TABLE IF NOT EXISTS movies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL CHECK (title <> ''),
	year INTEGER NOT NULL CHECK (year > 1877 AND year < 10000),
	duration INTEGER CHECK (duration IS NULL OR duration > 0),
	synopsis TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (title, year)
);

CREATE TABLE IF NOT EXISTS people (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK (name <> '')
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL UNIQUE CHECK (text <> '')
);

CREATE TABLE IF NOT EXISTS movie_directors (
	movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	person_id INTEGER NOT NULL REFERENCES people(id),
	PRIMARY KEY (movie_id, person_id)
);

CREATE TABLE IF NOT EXISTS movie_stars (
	movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	person_id INTEGER NOT NULL REFERENCES people(id),
	PRIMARY KEY (movie_id, person_id)
);

CREATE TABLE IF NOT EXISTS movie_tags (
	movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (movie_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_movie_directors_person ON movie_directors(person_id);
CREATE INDEX IF NOT EXISTS idx_movie_stars_person ON movie_stars(person_id);
CREATE INDEX IF NOT EXISTS idx_movie_tags_tag ON movie_tags(tag_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`
