// Package store defines the corpus cache contract: ingestion results
// persisted so repeated runs skip re-reading the compressed sources.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
)

// Store persists ingested corpora keyed by their load parameters.
// An existing snapshot is trusted unconditionally; invalidation is
// manual via DeleteCorpus.
type Store interface {
	Close() error

	// SaveCorpus replaces the snapshot for key with rows, preserving
	// row order.
	SaveCorpus(ctx context.Context, key string, rows []corpus.Row) (Snapshot, error)

	// LoadCorpus returns the cached rows for key in their saved order.
	// ok is false when no snapshot exists.
	LoadCorpus(ctx context.Context, key string) ([]corpus.Row, bool, error)

	// Snapshots lists all cached snapshots.
	Snapshots(ctx context.Context) ([]Snapshot, error)

	// DeleteCorpus drops the snapshot for key. The error wraps
	// internalerr.ErrNotFound when no snapshot exists.
	DeleteCorpus(ctx context.Context, key string) error
}

// Snapshot describes one cached ingestion result.
type Snapshot struct {
	ID        string // ULID assigned at save time
	Key       string
	RowCount  int
	CreatedAt time.Time
}

// CacheKey derives the snapshot key from the load parameters. Two
// ingestion calls with the same source name, field, and row budget hit
// the same snapshot.
func CacheKey(name, field string, rowLimit int) string {
	return fmt.Sprintf("%s|%s|%d", name, field, rowLimit)
}
