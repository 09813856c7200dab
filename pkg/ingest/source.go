package ingest

import (
	"bytes"
	"io"
	"os"
)

// Source is a re-openable input stream. The pipeline reads its input
// twice: once to count rows, once to process them.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSource reads an uploaded CSV from the local filesystem.
type FileSource string

func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// MemorySource serves a CSV held in memory.
type MemorySource []byte

func (m MemorySource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m)), nil
}
