// Package moodboard serves aggregate statistics over classifier-annotated
// social-media text corpora.
package moodboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/moodworks/moodboard/pkg/moodboard/aggregate"
	"github.com/moodworks/moodboard/pkg/moodboard/annotate"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/filter"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
)

// Options configures a Service.
type Options struct {
	// Sources are ingested independently and concatenated; each gets
	// its own dedup set and row budget.
	Sources []corpus.Source

	// RowLimit bounds unique rows per source. Zero means unbounded.
	RowLimit int

	// ChunkSize tunes decompression reads. Zero selects the default.
	ChunkSize int

	// Store caches ingestion results. Nil disables caching.
	Store store.Store

	Classifiers annotate.Classifiers
}

// Service owns the corpus and its annotations. Construction of both is
// expensive and happens at most once per Service, on first use; after
// that the annotated table is immutable and shared by all requests
// without further coordination.
type Service struct {
	opts Options
	rows []corpus.Row // non-nil bypasses ingestion entirely

	mu    sync.Mutex
	table *annotate.Table
}

// New creates a Service. No I/O happens until the first query.
func New(opts Options) *Service {
	return &Service{opts: opts}
}

// NewFromRows creates a Service over an already materialized corpus,
// skipping ingestion and caching. Useful when embedding the pipeline
// and in tests.
func NewFromRows(rows []corpus.Row, cls annotate.Classifiers) *Service {
	return &Service{opts: Options{Classifiers: cls}, rows: rows}
}

// Table returns the fully annotated corpus, building it on first call.
// The mutex makes construction at-most-once under concurrent first
// requests; a failed build is retried by the next caller.
func (s *Service) Table(ctx context.Context) (*annotate.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return s.table, nil
	}

	rows, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	table, err := annotate.Build(rows, s.opts.Classifiers)
	if err != nil {
		return nil, err
	}
	s.table = table
	return table, nil
}

// loadCorpus assembles all sources, going through the snapshot cache
// when one is configured. An existing snapshot is trusted without
// looking at the source file.
func (s *Service) loadCorpus(ctx context.Context) ([]corpus.Row, error) {
	if s.rows != nil {
		return s.rows, nil
	}

	var all []corpus.Row
	for _, src := range s.opts.Sources {
		key := store.CacheKey(src.Name, src.Field, s.opts.RowLimit)

		if s.opts.Store != nil {
			cached, ok, err := s.opts.Store.LoadCorpus(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("moodboard: load cache for %q: %w", src.Name, err)
			}
			if ok {
				all = append(all, cached...)
				continue
			}
		}

		res, err := corpus.Ingest(src, s.opts.RowLimit, s.opts.ChunkSize)
		if err != nil {
			return nil, err
		}

		if s.opts.Store != nil {
			if _, err := s.opts.Store.SaveCorpus(ctx, key, res.Rows); err != nil {
				return nil, fmt.Errorf("moodboard: save cache for %q: %w", src.Name, err)
			}
		}
		all = append(all, res.Rows...)
	}
	return all, nil
}

// Query runs the full pipeline: annotate (memoized), filter when expr
// is non-empty, then aggregate by (origin, subject). A malformed
// expression fails before any table work, wrapping ErrBadFilter.
func (s *Service) Query(ctx context.Context, expr string) (aggregate.Result, error) {
	var prog *filter.Program
	if expr != "" {
		var err error
		prog, err = filter.Parse(expr)
		if err != nil {
			return aggregate.Result{}, err
		}
	}

	table, err := s.Table(ctx)
	if err != nil {
		return aggregate.Result{}, err
	}

	if prog != nil {
		table, err = table.Filter(prog)
		if err != nil {
			return aggregate.Result{}, err
		}
	}

	return aggregate.Aggregate(table), nil
}

// Reset drops the memoized table so the next call rebuilds it. Intended
// for tests and manual cache invalidation.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
}
