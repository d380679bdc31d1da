package catalog

import "fmt"

// schemaStatements is the additive, IF NOT EXISTS-based schema, mirroring
// the teacher's migration style: every startup runs the full set and
// existing tables/indexes are left untouched.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		extension TEXT,
		size INTEGER,
		mod_time DATETIME,
		status TEXT NOT NULL DEFAULT 'discovered',
		last_error TEXT,
		discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		indexed_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_files_path ON files(path)`,

	`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		file_id TEXT NOT NULL REFERENCES files(id),
		ordinal INTEGER NOT NULL,
		text TEXT NOT NULL,
		token_count INTEGER,
		start_offset INTEGER,
		end_offset INTEGER,
		kind TEXT NOT NULL DEFAULT 'prose'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON chunks(file_id)`,

	`CREATE TABLE IF NOT EXISTS entity_occurrences (
		id TEXT PRIMARY KEY,
		surface_form TEXT NOT NULL,
		normalized_form TEXT NOT NULL,
		type TEXT NOT NULL,
		chunk_id TEXT NOT NULL REFERENCES chunks(id),
		file_id TEXT NOT NULL REFERENCES files(id),
		confidence REAL NOT NULL DEFAULT 1.0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entity_occurrences(normalized_form)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_file_id ON entity_occurrences(file_id)`,

	`CREATE TABLE IF NOT EXISTS consolidated_entities (
		id TEXT PRIMARY KEY,
		canonical_form TEXT NOT NULL,
		type TEXT NOT NULL,
		aliases TEXT NOT NULL DEFAULT '[]',
		occurrence_count INTEGER NOT NULL DEFAULT 0,
		file_diversity INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME,
		last_seen DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS entity_alias_map (
		occurrence_id TEXT PRIMARY KEY REFERENCES entity_occurrences(id),
		consolidated_id TEXT NOT NULL REFERENCES consolidated_entities(id)
	)`,

	`CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		confidence REAL NOT NULL,
		source_files TEXT NOT NULL DEFAULT '[]',
		stale INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS discoveries (
		id TEXT PRIMARY KEY,
		pattern_id TEXT NOT NULL REFERENCES patterns(id),
		title TEXT NOT NULL,
		confidence REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		user_notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discoveries_confidence ON discoveries(confidence)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'normal',
		status TEXT NOT NULL DEFAULT 'pending',
		enqueued_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		started_at DATETIME,
		finished_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,

	`CREATE TABLE IF NOT EXISTS job_history (
		job_id TEXT NOT NULL,
		status TEXT NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS image_metadata (
		chunk_id TEXT PRIMARY KEY REFERENCES chunks(id),
		width INTEGER,
		height INTEGER,
		exif_json TEXT,
		gps_lat REAL,
		gps_lon REAL,
		taken_at DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS audio_metadata (
		chunk_id TEXT PRIMARY KEY REFERENCES chunks(id),
		duration_seconds REAL,
		sample_rate INTEGER,
		transcript_chunk_id TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS fae_metadata (
		file_id TEXT PRIMARY KEY REFERENCES files(id),
		provider TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		export_format_version TEXT
	)`,
}

func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration statement: %w", err)
		}
	}
	return tx.Commit()
}
