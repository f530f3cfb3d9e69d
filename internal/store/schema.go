package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS revisions (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    budget_path          TEXT NOT NULL,
    saved_at             TEXT NOT NULL,
    content_hash         TEXT NOT NULL,
    mode                 TEXT NOT NULL,
    grand_total          TEXT NOT NULL,
    subtotal             TEXT NOT NULL,
    categories           INTEGER NOT NULL,
    fees                 INTEGER NOT NULL,
    over_budget          INTEGER NOT NULL DEFAULT 0,
    note                 TEXT,
    document             BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    budget_path          TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revisions_path ON revisions(budget_path, id);
`
