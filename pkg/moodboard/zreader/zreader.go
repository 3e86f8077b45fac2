// Package zreader reads newline-delimited records out of a
// zstd-compressed file in fixed-size decompressed chunks.
package zreader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// DefaultChunkSize is the decompressed read size used when none is
// configured. It trades memory for fewer decoder calls; the chunk size
// never changes which lines come out.
const DefaultChunkSize = 1 << 26

// Reader yields lines from a zstd stream. Lines are returned without
// the trailing newline. Not safe for concurrent use.
type Reader struct {
	file    *os.File
	dec     *zstd.Decoder
	chunk   []byte
	carry   []byte   // partial line from the previous chunk
	pending [][]byte // complete lines not yet handed out
	eof     bool
}

// Open opens path for chunked line reading. chunkSize <= 0 selects
// DefaultChunkSize.
func Open(path string, chunkSize int) (*Reader, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zreader: %w", err)
	}

	// Large archives (Pushshift dumps) are encoded with a long window.
	dec, err := zstd.NewReader(file, zstd.WithDecoderMaxWindow(zstd.MaxWindowSize))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("zreader: %w", err)
	}

	return &Reader{
		file:  file,
		dec:   dec,
		chunk: make([]byte, chunkSize),
	}, nil
}

// ReadLine returns the next line, or io.EOF once the stream is
// exhausted. A final line without a trailing newline is still returned.
func (r *Reader) ReadLine() (string, error) {
	for {
		if len(r.pending) > 0 {
			line := r.pending[0]
			r.pending = r.pending[1:]
			return string(line), nil
		}

		if r.eof {
			if len(r.carry) > 0 {
				line := string(r.carry)
				r.carry = nil
				return line, nil
			}
			return "", io.EOF
		}

		if err := r.fill(); err != nil {
			return "", err
		}
	}
}

// fill reads one decompressed chunk and splits it into lines, carrying
// any trailing partial line over to the next chunk.
func (r *Reader) fill() error {
	n, err := r.dec.Read(r.chunk)
	if n > 0 {
		data := append(r.carry, r.chunk[:n]...)
		parts := bytes.Split(data, []byte{'\n'})
		r.carry = parts[len(parts)-1]
		for _, part := range parts[:len(parts)-1] {
			line := make([]byte, len(part))
			copy(line, part)
			r.pending = append(r.pending, line)
		}
	}
	if err == io.EOF {
		r.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("zreader: %w", err)
	}
	return nil
}

// Close releases the decoder and the underlying file.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.file.Close()
}
