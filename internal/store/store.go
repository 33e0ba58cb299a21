package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS intersections (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	lat  REAL NOT NULL,
	lon  REAL NOT NULL,
	UNIQUE (lat, lon)
);
CREATE INDEX IF NOT EXISTS idx_intersection_lat_lon ON intersections (lat, lon);

CREATE TABLE IF NOT EXISTS flow_observations (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	intersection_id      INTEGER NOT NULL REFERENCES intersections(id),
	ts_utc               INTEGER NOT NULL,
	current_speed        REAL,
	freeflow_speed       REAL,
	current_travel_time  REAL,
	freeflow_travel_time REAL,
	confidence           REAL,
	UNIQUE (intersection_id, ts_utc)
);
CREATE INDEX IF NOT EXISTS idx_obs_intersection_ts ON flow_observations (intersection_id, ts_utc);
`

// Store wraps a SQLite database holding intersections and flow observations.
type Store struct {
	conn *sql.DB
	Path string
}

// Open opens (creating if needed) the SQLite database at path with WAL mode
// and foreign keys enabled, and ensures the schema exists. WAL keeps readers
// from blocking the single ingest writer.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	return open(path, 0)
}

// OpenMemory opens an in-memory database, mainly for tests. The pool is
// pinned to a single connection because every new connection to ":memory:"
// would otherwise see its own empty database.
func OpenMemory() (*Store, error) {
	return open(":memory:", 1)
}

func open(path string, maxConns int) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{conn: conn, Path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries.
func (s *Store) Conn() *sql.DB {
	return s.conn
}
