package ledger

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	id INTEGER PRIMARY KEY,
	slug TEXT UNIQUE NOT NULL,
	page_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	highlights INTEGER NOT NULL DEFAULT 0,
	imported_at INTEGER NOT NULL
);
`
