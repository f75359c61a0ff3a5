package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS analysis_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword TEXT NOT NULL,
    rank INTEGER NOT NULL DEFAULT 0,
    source_id TEXT DEFAULT '',
    url TEXT NOT NULL,
    title_length INTEGER DEFAULT 0,
    title_has_keyword INTEGER DEFAULT 0,
    title_keyword_position TEXT DEFAULT 'none',
    content_length INTEGER DEFAULT 0,
    image_count INTEGER DEFAULT 0,
    video_count INTEGER DEFAULT 0,
    heading_count INTEGER DEFAULT 0,
    keyword_count INTEGER DEFAULT 0,
    keyword_density REAL DEFAULT 0,
    has_map INTEGER DEFAULT 0,
    has_external_link INTEGER DEFAULT 0,
    like_count INTEGER DEFAULT 0,
    comment_count INTEGER DEFAULT 0,
    post_age_days INTEGER,
    category TEXT NOT NULL DEFAULT 'general',
    data_quality TEXT NOT NULL DEFAULT 'low',
    analyzed_at TEXT DEFAULT (datetime('now')),
    UNIQUE (keyword, url)
);

CREATE TABLE IF NOT EXISTS aggregated_patterns (
    category TEXT PRIMARY KEY,
    sample_count INTEGER DEFAULT 0,
    avg_title_length REAL DEFAULT 0,
    avg_content_length REAL DEFAULT 0,
    avg_image_count REAL DEFAULT 0,
    avg_video_count REAL DEFAULT 0,
    avg_heading_count REAL DEFAULT 0,
    avg_keyword_count REAL DEFAULT 0,
    avg_keyword_density REAL DEFAULT 0,
    min_content_length INTEGER DEFAULT 0,
    max_content_length INTEGER DEFAULT 0,
    min_image_count INTEGER DEFAULT 0,
    max_image_count INTEGER DEFAULT 0,
    title_keyword_rate REAL DEFAULT 0,
    map_rate REAL DEFAULT 0,
    external_link_rate REAL DEFAULT 0,
    video_rate REAL DEFAULT 0,
    front_rate REAL DEFAULT 0,
    middle_rate REAL DEFAULT 0,
    end_rate REAL DEFAULT 0,
    optimal_content_min INTEGER DEFAULT 0,
    optimal_content_max INTEGER DEFAULT 0,
    optimal_image_min INTEGER DEFAULT 0,
    optimal_image_max INTEGER DEFAULT 0,
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_category ON analysis_records(category);
CREATE INDEX IF NOT EXISTS idx_records_keyword ON analysis_records(keyword);
CREATE INDEX IF NOT EXISTS idx_records_content_length ON analysis_records(content_length);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
