// Package sqlite implements the corpus cache on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite-backed corpus cache with WAL mode enabled,
// creating the schema if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS corpus_snapshots (
	id TEXT PRIMARY KEY,
	key TEXT UNIQUE NOT NULL,
	row_count INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS corpus_rows (
	snapshot_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	text TEXT NOT NULL,
	origin TEXT NOT NULL,
	PRIMARY KEY(snapshot_id, seq),
	FOREIGN KEY(snapshot_id) REFERENCES corpus_snapshots(id) ON DELETE CASCADE
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveCorpus replaces any existing snapshot for key inside a single
// transaction, preserving row order through the seq column.
func (s *sqliteStore) SaveCorpus(ctx context.Context, key string, rows []corpus.Row) (store.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Snapshot{}, err
	}
	defer tx.Rollback()

	if err := deleteByKey(ctx, tx, key); err != nil {
		return store.Snapshot{}, err
	}

	snap := store.Snapshot{
		ID:        ulid.Make().String(),
		Key:       key,
		RowCount:  len(rows),
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO corpus_snapshots (id, key, row_count, created_at) VALUES (?, ?, ?, ?)",
		snap.ID, snap.Key, snap.RowCount, snap.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return store.Snapshot{}, err
	}

	insert, err := tx.PrepareContext(ctx,
		"INSERT INTO corpus_rows (snapshot_id, seq, text, origin) VALUES (?, ?, ?, ?)")
	if err != nil {
		return store.Snapshot{}, err
	}
	defer insert.Close()

	for i, row := range rows {
		if _, err := insert.ExecContext(ctx, snap.ID, i, row.Text, row.Origin); err != nil {
			return store.Snapshot{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// LoadCorpus returns cached rows for key in saved order.
func (s *sqliteStore) LoadCorpus(ctx context.Context, key string) ([]corpus.Row, bool, error) {
	var snapshotID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM corpus_snapshots WHERE key = ?", key).Scan(&snapshotID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT text, origin FROM corpus_rows WHERE snapshot_id = ? ORDER BY seq", snapshotID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []corpus.Row
	for rows.Next() {
		var row corpus.Row
		if err := rows.Scan(&row.Text, &row.Origin); err != nil {
			return nil, false, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Snapshots lists cached snapshots, newest first.
func (s *sqliteStore) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, key, row_count, created_at FROM corpus_snapshots ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Snapshot
	for rows.Next() {
		var snap store.Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Key, &snap.RowCount, &createdAt); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			snap.CreatedAt = ts
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteCorpus drops the snapshot for key. ON DELETE CASCADE removes
// the rows.
func (s *sqliteStore) DeleteCorpus(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM corpus_snapshots WHERE key = ?", key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("snapshot %q: %w", key, internalerr.ErrNotFound)
	}
	return nil
}

func deleteByKey(ctx context.Context, tx *sql.Tx, key string) error {
	// ON DELETE CASCADE removes the rows.
	_, err := tx.ExecContext(ctx, "DELETE FROM corpus_snapshots WHERE key = ?", key)
	return err
}
