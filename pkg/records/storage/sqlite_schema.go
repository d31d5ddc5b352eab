package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the records tables.
const Schema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    ladder TEXT NOT NULL,
    input TEXT NOT NULL,
    result TEXT NOT NULL,
    rule_index INTEGER NOT NULL,
    rule_name TEXT,
    defaulted BOOLEAN NOT NULL,
    duration_ns INTEGER NOT NULL,
    evaluated_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_evaluations_ladder ON evaluations(ladder);
CREATE INDEX IF NOT EXISTS idx_evaluations_rule_name ON evaluations(rule_name);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecord = `
INSERT INTO evaluations (
    id, ladder, input, result, rule_index, rule_name, defaulted,
    duration_ns, evaluated_at, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `id, ladder, input, result, rule_index, rule_name, defaulted, duration_ns, evaluated_at, recorded_at`
