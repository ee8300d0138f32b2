// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Store is a SQLite-backed snapshot file. Rows are keyed by (key, position)
// so a key's records load back in the order they were recorded.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the snapshot database at path and ensures
// the schema exists.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_records (
			key TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			snippet TEXT,
			source TEXT,
			published_at TEXT,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (key, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_records_key ON snapshot_records(key)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put replaces the records stored under key in a single transaction.
func (s *Store) Put(ctx context.Context, key string, records []types.ResultRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clearing key %q: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_records
		(key, position, title, url, snippet, source, published_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, r := range records {
		e := toEntry(r)
		if _, err := stmt.ExecContext(ctx, key, i, e.Title, e.URL, e.Snippet, e.Source, e.PublishedAt, now); err != nil {
			return fmt.Errorf("inserting record %d for key %q: %w", i, key, err)
		}
	}

	return tx.Commit()
}

// All returns every stored key with its records in recorded order.
func (s *Store) All(ctx context.Context) (map[string][]types.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, title, url, snippet, source, published_at
		FROM snapshot_records ORDER BY key, position`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot records: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]types.ResultRecord)
	for rows.Next() {
		var (
			key                     string
			e                       entry
			snippet, source, pubStr sql.NullString
		)
		if err := rows.Scan(&key, &e.Title, &e.URL, &snippet, &source, &pubStr); err != nil {
			return nil, fmt.Errorf("scanning snapshot record: %w", err)
		}
		e.Snippet = snippet.String
		e.Source = source.String
		e.PublishedAt = pubStr.String
		entries[key] = append(entries[key], e.toRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot records: %w", err)
	}
	return entries, nil
}
