// Package transport supplies the byte source the pipeline's I/O thread
// reads from: an NTRIP network stream or a local serial GNSS receiver
// (spec.md 2, "Byte Source"). Neither implementation reconnects on its
// own; spec.md leaves the exact reconnect/backoff policy to the
// pipeline, which calls Open again after a bounded delay.
package transport

import "context"

// Source is a byte-oriented reader that can be reopened after a
// failure. Read should block until data is available, the context is
// cancelled, or the underlying connection breaks.
type Source interface {
	// Open establishes (or re-establishes) the connection.
	Open(ctx context.Context) error
	// Read pulls the next chunk of raw bytes.
	Read(ctx context.Context, buf []byte) (int, error)
	// Close releases any held resources.
	Close() error
}
