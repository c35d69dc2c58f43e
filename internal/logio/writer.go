package logio

import (
	"bytes"
	"sync"
)

// Writer turns written bytes into calls to Logf, one per line, so that
// anything rendering to an io.Writer can log into testing.T.Logf. With Sync
// it satisfies zapcore.WriteSyncer.
type Writer struct {
	Logf func(string, ...interface{})

	mu      sync.Mutex
	partial []byte
}

// Write logs every line completed by p, holding back any trailing partial
// line until a later Write or Sync. It is safe for concurrent use.
func (lw *Writer) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	rest := append(lw.partial, p...)
	for {
		line, after, found := bytes.Cut(rest, []byte{'\n'})
		if !found {
			break
		}
		lw.Logf("%s", line)
		rest = after
	}
	lw.partial = append(lw.partial[:0], rest...)
	return len(p), nil
}

// Sync logs any held partial line.
func (lw *Writer) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if len(lw.partial) > 0 {
		lw.Logf("%s", lw.partial)
		lw.partial = lw.partial[:0]
	}
	return nil
}

// Close calls Sync.
func (lw *Writer) Close() error { return lw.Sync() }

// Printf returns a logf function, of the shape taken by WithLogf options,
// that prefixes each message with mark.
func (lw *Writer) Printf(mark string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) {
		lw.Logf(mark+" "+mess, args...)
	}
}
