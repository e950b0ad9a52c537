package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	repo TEXT NOT NULL,
	prefix TEXT NOT NULL,
	stargazers INTEGER NOT NULL,
	suspicious INTEGER NOT NULL,
	top_score REAL NOT NULL,
	mean_score REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS run_scores (
	run_id TEXT NOT NULL,
	login TEXT NOT NULL,
	account_type TEXT NOT NULL,
	score REAL NOT NULL,
	signals TEXT NOT NULL,
	PRIMARY KEY (run_id, login),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_scores_score ON run_scores(run_id, score);
`

// Init opens the SQLite run archive and bootstraps its schema
func Init(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_busy_timeout=30000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}
