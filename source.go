package starcat

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source supplies the raw text of one dataset.
type Source interface {
	// Read returns the whole document. When limit > 0 it reads at most
	// limit+1 bytes so callers can detect oversized input.
	Read(limit int64) ([]byte, error)
	// Name identifies the source in logs and snapshots.
	Name() string
}

// JSONBytes wraps an in-memory document.
func JSONBytes(b []byte) Source { return bytesSource{b: b} }

// JSONReader wraps a reader. The reader is consumed on first use.
func JSONReader(r io.Reader) Source { return readerSource{r: r, name: "reader"} }

// JSONFile reads a document from disk on every Read.
func JSONFile(path string) Source { return fileSource(path) }

type bytesSource struct{ b []byte }

func (s bytesSource) Read(limit int64) ([]byte, error) {
	if limit > 0 && int64(len(s.b)) > limit+1 {
		return s.b[:limit+1], nil
	}
	return s.b, nil
}

func (bytesSource) Name() string { return "bytes" }

type readerSource struct {
	r    io.Reader
	name string
}

func (s readerSource) Read(limit int64) ([]byte, error) {
	r := s.r
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s readerSource) Name() string { return s.name }

type fileSource string

func (p fileSource) Read(limit int64) ([]byte, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return readerSource{r: f}.Read(limit)
}

func (p fileSource) Name() string { return string(p) }
