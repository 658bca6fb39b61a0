package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database for the given driver and DSN and bootstraps the
// schema. SQLite is the local-first default; Postgres is supported with the
// same queries since SQLite accepts $N placeholders too.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error. Grading a review goes through here so the card update,
// history append and lapse increment land as one atomic unit.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// insertID executes an insert statement and returns the generated row id.
// lib/pq does not implement LastInsertId, so on postgres the statement is
// extended with a RETURNING clause instead.
func insertID(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (int64, error) {
	if db.DriverName() == "postgres" {
		var id int64
		if err := db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// initializeSchema creates necessary tables if they don't exist.
func initializeSchema(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id %s,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cards (
			id %s,
			item_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL DEFAULT 1,
			difficulty REAL NOT NULL DEFAULT 5.0,
			stability REAL NOT NULL DEFAULT 1.0,
			retrievability REAL NOT NULL DEFAULT 1.0,
			phase INTEGER NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			lapse_count INTEGER NOT NULL DEFAULT 0,
			last_review_date TIMESTAMP,
			next_review_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (item_id) REFERENCES items(id),
			UNIQUE(item_id, user_id)
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_history (
			id %s,
			card_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			response_time_ms INTEGER NOT NULL DEFAULT 0,
			difficulty_before REAL NOT NULL,
			stability_before REAL NOT NULL,
			retrievability_before REAL NOT NULL,
			difficulty_after REAL NOT NULL,
			stability_after REAL NOT NULL,
			retrievability_after REAL NOT NULL,
			interval_days INTEGER NOT NULL,
			session_id INTEGER,
			reviewed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (card_id) REFERENCES cards(id)
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS learning_sessions (
			id %s,
			user_id INTEGER NOT NULL DEFAULT 1,
			session_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			target_retention REAL NOT NULL DEFAULT 0.9,
			max_reviews INTEGER NOT NULL DEFAULT 50,
			start_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			end_time TIMESTAMP,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			questions_reviewed INTEGER NOT NULL DEFAULT 0,
			questions_correct INTEGER NOT NULL DEFAULT 0,
			average_response_time_ms INTEGER NOT NULL DEFAULT 0,
			retention_rate REAL NOT NULL DEFAULT 0
		)`, serial),
		`
		CREATE TABLE IF NOT EXISTS algorithm_config (
			user_id INTEGER PRIMARY KEY,
			parameters TEXT NOT NULL,
			target_retention REAL NOT NULL DEFAULT 0.9,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
