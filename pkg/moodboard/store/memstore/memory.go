// Package memstore is an in-memory corpus cache for tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]store.Snapshot
	rows      map[string][]corpus.Row
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]store.Snapshot),
		rows:      make(map[string][]corpus.Row),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveCorpus implements store.Store.
func (s *Store) SaveCorpus(ctx context.Context, key string, rows []corpus.Row) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := store.Snapshot{
		ID:        ulid.Make().String(),
		Key:       key,
		RowCount:  len(rows),
		CreatedAt: time.Now().UTC(),
	}
	s.snapshots[key] = snap
	s.rows[key] = append([]corpus.Row(nil), rows...)
	return snap, nil
}

// LoadCorpus implements store.Store.
func (s *Store) LoadCorpus(ctx context.Context, key string) ([]corpus.Row, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.rows[key]
	if !ok {
		return nil, false, nil
	}
	return append([]corpus.Row(nil), rows...), true, nil
}

// Snapshots implements store.Store.
func (s *Store) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out, nil
}

// DeleteCorpus implements store.Store.
func (s *Store) DeleteCorpus(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[key]; !ok {
		return fmt.Errorf("snapshot %q: %w", key, internalerr.ErrNotFound)
	}
	delete(s.snapshots, key)
	delete(s.rows, key)
	return nil
}
