package store

// schemaVersion is the current history schema.
const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	module_name TEXT NOT NULL,
	technology TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	failure_reason TEXT,
	total INTEGER NOT NULL,
	completed INTEGER NOT NULL,
	pending INTEGER NOT NULL,
	missing INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	write_attempts INTEGER NOT NULL,
	validation_attempts INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	source_path TEXT NOT NULL,
	target_path TEXT NOT NULL,
	category TEXT NOT NULL,
	status TEXT NOT NULL,
	note TEXT,
	write_attempts INTEGER NOT NULL,
	validation_attempts INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id, position);
`
