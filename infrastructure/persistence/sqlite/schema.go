package sqlite

const (
	pragmaWAL         = `PRAGMA journal_mode = WAL`
	pragmaBusyTimeout = `PRAGMA busy_timeout = 5000`
	pragmaSynchronous = `PRAGMA synchronous = NORMAL`

	// body holds the full record as JSON; the other columns serve listings
	schemaBrainDumps = `
		CREATE TABLE IF NOT EXISTS brain_dumps (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL,
			title                TEXT NOT NULL DEFAULT '',
			type                 TEXT NOT NULL DEFAULT 'general',
			parent_brain_dump_id TEXT,
			node_count           INTEGER NOT NULL DEFAULT 0,
			edge_count           INTEGER NOT NULL DEFAULT 0,
			version              INTEGER NOT NULL DEFAULT 0,
			created_at           TEXT NOT NULL,
			updated_at           TEXT NOT NULL,
			body                 TEXT NOT NULL
		)`

	indexBrainDumpsUser = `CREATE INDEX IF NOT EXISTS idx_brain_dumps_user ON brain_dumps(user_id, updated_at DESC)`
)

func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}

func allSchemaStatements() []string {
	return []string{
		schemaBrainDumps,
		indexBrainDumpsUser,
	}
}
