package flushio

import (
	"bufio"
	"io"
)

// WriteFlusher is an io.Writer that may hold output until Flush.
type WriteFlusher interface {
	io.Writer
	Flush() error
}

// NewWriteFlusher buffers w unless it already flushes, or is an in-memory
// buffer like bytes.Buffer or strings.Builder that gains nothing from it.
func NewWriteFlusher(w io.Writer) WriteFlusher {
	switch impl := w.(type) {
	case WriteFlusher:
		return impl
	case interface{ Len() int }:
		return unbuffered{w}
	}
	if w == io.Discard {
		return unbuffered{w}
	}
	return bufio.NewWriter(w)
}

// WriteString writes s to wf, avoiding a copy when wf supports it.
func WriteString(wf WriteFlusher, s string) error {
	_, err := io.WriteString(wf, s)
	return err
}

type unbuffered struct{ io.Writer }

func (unbuffered) Flush() error { return nil }
