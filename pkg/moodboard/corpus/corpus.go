// Package corpus assembles deduplicated text rows from compressed
// newline-delimited JSON dumps.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
	"github.com/moodworks/moodboard/pkg/moodboard/zreader"
)

// Source describes one dataset dump.
type Source struct {
	Name  string // origin label attached to every row, e.g. "Reddit"
	Path  string // path to the .zst file
	Field string // JSON field holding the text, e.g. "body" or "message"
}

// Row is one unique text entry tagged with its origin.
type Row struct {
	Text   string
	Origin string
}

// Result is the outcome of one ingestion call. Rows are in first-seen
// order, which makes repeat runs over the same input reproducible.
type Result struct {
	Rows      []Row
	Malformed int // lines that failed JSON decoding
	FieldMiss int // records without a usable text field
	Dupes     int // texts already collected in this call
}

// LineReader yields one record per call and io.EOF at end of stream.
type LineReader interface {
	ReadLine() (string, error)
}

// Ingest reads src until limit unique texts are collected or the stream
// ends. A missing or unreadable source file is fatal; malformed lines
// and absent fields are skipped and counted. Each call owns a fresh
// dedup set, so duplicates are only removed within a single source.
func Ingest(src Source, limit, chunkSize int) (Result, error) {
	if src.Field == "" {
		return Result{}, fmt.Errorf("corpus: source %q has no field: %w", src.Name, internalerr.ErrInvalidConfig)
	}

	reader, err := zreader.Open(src.Path, chunkSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("corpus: source %q: %w: %s", src.Name, internalerr.ErrMissingSource, src.Path)
		}
		return Result{}, fmt.Errorf("corpus: source %q: %w", src.Name, err)
	}
	defer reader.Close()

	return Collect(reader, src.Field, src.Name, limit)
}

// Collect runs the ingestion loop over an already-open line stream.
// Reading stops as soon as the dedup set reaches limit; the rest of the
// stream is never consumed.
func Collect(r LineReader, field, origin string, limit int) (Result, error) {
	var res Result
	seen := make(map[string]struct{})

	for limit <= 0 || len(seen) < limit {
		line, err := r.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("corpus: read %q: %w", origin, err)
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			res.Malformed++
			continue
		}

		text, ok := entry[field].(string)
		if !ok || text == "" {
			res.FieldMiss++
			continue
		}

		if _, dup := seen[text]; dup {
			res.Dupes++
			continue
		}
		seen[text] = struct{}{}
		res.Rows = append(res.Rows, Row{Text: text, Origin: origin})
	}

	return res, nil
}
