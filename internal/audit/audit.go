// Package audit writes the transformation record: one CSV line per
// cell swap, read back by downstream annotation tooling. The format is
// fixed legacy CSV with an always-quoted Scope column, which rules out
// encoding/csv and its conditional quoting.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// header is the first line of every transformation log.
const header = "Scope,Instance,From cell,To cell"

// Log is an open transformation record. It is not safe for concurrent
// use; the controller is single-threaded by contract.
type Log struct {
	f      *os.File
	w      *bufio.Writer
	closed bool
}

// Open creates the transformation log at path, creating parent
// directories as needed, and writes the header. An existing file is
// truncated: the log describes one optimization run.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating audit log: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing audit log header: %w", err)
	}
	return &Log{f: f, w: w}, nil
}

// Record appends one swap. Instance is expected already de-escaped.
func (l *Log) Record(scope, instance, fromCell, toCell string) error {
	if l.closed {
		return fmt.Errorf("audit log is closed")
	}
	_, err := fmt.Fprintf(l.w, "%q,%s,%s,%s\n", scope, instance, fromCell, toCell)
	if err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// Close flushes and closes the log. Close is idempotent so it can sit
// in a defer on every controller exit path.
func (l *Log) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.w.Flush()
	closeErr := l.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flushing audit log: %w", flushErr)
	}
	return closeErr
}

// Closed reports whether Close has run.
func (l *Log) Closed() bool { return l.closed }
