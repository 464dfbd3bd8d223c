package database

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store is the durable home of alerts, watchlists, users and persisted
// metric counters, backed by a single sqlite file.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite serializes writes anyway; a single connection also keeps
	// in-memory databases coherent across the pool.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			token_address TEXT NOT NULL,
			token_name TEXT NOT NULL DEFAULT '',
			token_symbol TEXT NOT NULL DEFAULT '',
			chain TEXT NOT NULL DEFAULT '',
			initial_price REAL NOT NULL,
			target_price REAL NOT NULL DEFAULT 0,
			direction TEXT NOT NULL,
			percent REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			triggered INTEGER NOT NULL DEFAULT 0,
			triggered_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(active);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_owner ON alerts(owner_id);`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			owner_id INTEGER NOT NULL,
			token_address TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			symbol TEXT NOT NULL DEFAULT '',
			chain TEXT NOT NULL DEFAULT '',
			initial_price REAL NOT NULL DEFAULT 0,
			added_at TIMESTAMP NOT NULL,
			PRIMARY KEY (owner_id, token_address)
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name TEXT NOT NULL,
			label_key TEXT DEFAULT NULL,
			label_value TEXT DEFAULT NULL,
			metric_value REAL NOT NULL,
			PRIMARY KEY (metric_name, label_key, label_value)
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	log.Debug("Database initialized successfully.")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
