// Package journal archives per-tick records as zstd-compressed NDJSON, one
// JSON object per line. The format is append-only and replayable.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Writer appends records to a journal file.
type Writer struct {
	f   *os.File
	zw  *zstd.Encoder
	enc *json.Encoder
}

// NewWriter creates or truncates the journal at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Writer{f: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

// Append writes one record as a JSON line.
func (w *Writer) Append(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("close zstd: %w", err)
	}
	return w.f.Close()
}

// Reader iterates a journal's records in written order.
type Reader struct {
	f  *os.File
	zr *zstd.Decoder
	sc *bufio.Scanner
}

// NewReader opens the journal at path.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	sc := bufio.NewScanner(zr)
	// Enriched dialogue can make a tick line large.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{f: f, zr: zr, sc: sc}, nil
}

// Next decodes the next record into v. Returns io.EOF when the journal is
// exhausted.
func (r *Reader) Next(v any) error {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return fmt.Errorf("scan journal: %w", err)
		}
		return io.EOF
	}
	if err := json.Unmarshal(r.sc.Bytes(), v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// Close releases the decoder and file.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}
