package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with additional methods
type DB struct {
	*sql.DB

	mu         sync.Mutex
	lastVacuum time.Time
}

// New opens the catalog database
func New(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	// Enable WAL mode for better concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	return &DB{DB: db}, nil
}

// InitSchema creates all necessary tables
func (db *DB) InitSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS servers (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        address TEXT NOT NULL,
        port INTEGER NOT NULL,
        version_name TEXT,
        protocol INTEGER,
        description TEXT,
        online INTEGER,
        max_players INTEGER,
        favicon TEXT,
        licensed BOOLEAN,
        whitelisted BOOLEAN,
        last_status TEXT NOT NULL,
        first_seen DATETIME NOT NULL,
        last_seen DATETIME NOT NULL,
        UNIQUE (address, port)
    );

    CREATE INDEX IF NOT EXISTS idx_servers_last_seen ON servers(last_seen);
    CREATE INDEX IF NOT EXISTS idx_servers_last_status ON servers(last_status);

    CREATE TABLE IF NOT EXISTS players (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        uuid TEXT NOT NULL,
        name TEXT NOT NULL,
        server_id INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
        first_seen DATETIME NOT NULL,
        last_seen DATETIME NOT NULL,
        UNIQUE (name, server_id)
    );

    CREATE INDEX IF NOT EXISTS idx_players_server ON players(server_id);

    CREATE TABLE IF NOT EXISTS scan_stats (
        hour DATETIME NOT NULL PRIMARY KEY,
        probed INTEGER NOT NULL DEFAULT 0,
        reachable INTEGER NOT NULL DEFAULT 0,
        unreachable INTEGER NOT NULL DEFAULT 0,
        timed_out INTEGER NOT NULL DEFAULT 0,
        protocol_errors INTEGER NOT NULL DEFAULT 0
    );
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}
