package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS page_cache (
	id          TEXT PRIMARY KEY,
	resource    TEXT NOT NULL,
	page        INTEGER NOT NULL,
	total_count INTEGER NOT NULL DEFAULT 0,
	payload     TEXT NOT NULL DEFAULT '[]',
	fetched_at  INTEGER NOT NULL,
	UNIQUE(resource, page)
);

CREATE INDEX IF NOT EXISTS idx_page_cache_resource ON page_cache(resource);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS watch_progress (
	user_id      TEXT NOT NULL,
	video_id     TEXT NOT NULL,
	position_sec INTEGER NOT NULL DEFAULT 0,
	completed    INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	recorded_at  INTEGER NOT NULL,
	PRIMARY KEY (user_id, video_id)
);

CREATE INDEX IF NOT EXISTS idx_watch_progress_recorded ON watch_progress(recorded_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
