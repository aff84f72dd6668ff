// ABOUTME: SQLite database schema for topic naming runs
// ABOUTME: Creates all tables and indexes for local storage
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Runs table (one completed pipeline run per corpus)
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    document_type TEXT,
    corpus_description TEXT,
    chat_model TEXT,
    techniques TEXT,
    document_count INTEGER DEFAULT 0,
    layer_count INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Documents table (the corpus, by position)
CREATE TABLE IF NOT EXISTS documents (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (run_id, idx)
);

-- Clusters table (one row per cluster per layer)
CREATE TABLE IF NOT EXISTS clusters (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    idx INTEGER NOT NULL,
    size INTEGER NOT NULL,
    vector BLOB,
    location BLOB,
    PRIMARY KEY (run_id, layer, idx)
);

-- Cluster membership
CREATE TABLE IF NOT EXISTS cluster_points (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    cluster INTEGER NOT NULL,
    doc INTEGER NOT NULL,
    PRIMARY KEY (run_id, layer, cluster, doc)
);

-- Finer clusters merged into each cluster
CREATE TABLE IF NOT EXISTS cluster_metaclusters (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    cluster INTEGER NOT NULL,
    finer INTEGER NOT NULL,
    PRIMARY KEY (run_id, layer, cluster, finer)
);

-- Nearest clusters of the same layer, by rank
CREATE TABLE IF NOT EXISTS cluster_neighbors (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    cluster INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    neighbor INTEGER NOT NULL,
    PRIMARY KEY (run_id, layer, cluster, rank)
);

-- Evidence lists keyed by technique (or sub-topics)
CREATE TABLE IF NOT EXISTS evidence (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    cluster INTEGER NOT NULL,
    kind TEXT NOT NULL,
    items TEXT NOT NULL,
    PRIMARY KEY (run_id, layer, cluster, kind)
);

-- Generated and committed topic names
CREATE TABLE IF NOT EXISTS topic_names (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    layer INTEGER NOT NULL,
    cluster INTEGER NOT NULL,
    name TEXT NOT NULL,
    raw_name TEXT,
    attempts INTEGER DEFAULT 0,
    PRIMARY KEY (run_id, layer, cluster)
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_points_doc ON cluster_points(run_id, doc);
CREATE INDEX IF NOT EXISTS idx_names_name ON topic_names(name);
`

// SchemaVersion is stamped into PRAGMA user_version. Bump it whenever Schema
// changes in a way older binaries cannot read.
const SchemaVersion = 1
