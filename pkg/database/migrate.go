package database

import (
	"database/sql"
	"fmt"
)

// The ledger only records what the ingest CLI published locally; the shared
// catalog itself lives as a JSON document in object storage, not here.
const schema = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source      TEXT NOT NULL,
	selected    INTEGER NOT NULL,
	published   INTEGER NOT NULL,
	halt_reason TEXT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_items (
	run_id    TEXT NOT NULL REFERENCES ingest_runs(id) ON DELETE CASCADE,
	record_id TEXT NOT NULL,
	title     TEXT NOT NULL,
	date      TEXT NOT NULL,
	src       TEXT NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started
	ON ingest_runs(started_at DESC);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
