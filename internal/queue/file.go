package queue

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// File is a Queue backed by a line-per-record text file.
type File struct {
	mu     sync.Mutex
	path   string
	count  int
	logger Logger
}

// NewFile opens the queue at path, creating its directory if needed.
// An existing file is kept; a torn final line left by a crash mid-append is
// dropped so the next append starts on a fresh line.
func NewFile(path string, logger Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating directory: %w", ErrStorage, err)
	}

	q := &File{path: path, logger: orNoop(logger)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return q, nil
	case err != nil:
		return nil, fmt.Errorf("%w: reading %s: %w", ErrStorage, path, err)
	}

	records := q.decode(data)
	q.count = len(records)

	if len(data) > 0 && data[len(data)-1] != '\n' {
		q.logger.Warn("offline queue: repairing unterminated final record", "path", path)
		if err := q.rewrite(records); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// Path returns the backing file path.
func (q *File) Path() string {
	return q.path
}

// Append writes r as one line and syncs the file before returning.
// A failed write is truncated away so it cannot run into the next record,
// and a tail left unterminated by an earlier failure is closed off first.
func (q *File) Append(_ context.Context, r telemetry.Reading) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, filePermissions)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrStorage, q.path, err)
	}

	size, terminated, err := tail(f)
	if err != nil {
		f.Close() //nolint:errcheck // stat error takes precedence
		return fmt.Errorf("%w: inspecting %s: %w", ErrStorage, q.path, err)
	}

	line := telemetry.FormatLine(r) + "\n"
	if !terminated {
		q.logger.Warn("offline queue: unterminated record before append", "path", q.path)
		line = "\n" + line
	}

	if _, err := io.WriteString(f, line); err != nil {
		f.Truncate(size) //nolint:errcheck // best effort, the next append re-checks the tail
		f.Close()        //nolint:errcheck // write error takes precedence
		return fmt.Errorf("%w: appending: %w", ErrStorage, err)
	}
	if err := f.Sync(); err != nil {
		f.Truncate(size) //nolint:errcheck // best effort, the next append re-checks the tail
		f.Close()        //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("%w: syncing: %w", ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing: %w", ErrStorage, err)
	}

	q.count++
	return nil
}

// tail returns the file size and whether it is empty or ends in a newline.
func tail(f *os.File) (int64, bool, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, false, err
	}
	size := info.Size()
	if size == 0 {
		return 0, true, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return 0, false, err
	}
	return size, last[0] == '\n', nil
}

// DrainAll returns all stored records in file order.
func (q *File) DrainAll(_ context.Context) []telemetry.Reading {
	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			q.count = 0
			q.logger.Debug("offline queue: no backing file", "path", q.path)
		} else {
			q.logger.Warn("offline queue: read failed", "path", q.path, "error", err)
		}
		return []telemetry.Reading{}
	}
	return records
}

// Clear replaces the file with an empty one.
func (q *File) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.rewrite(nil)
}

// DropHead rewrites the file without its first n records.
func (q *File) DropHead(_ context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			q.count = 0
			return nil
		}
		return fmt.Errorf("%w: reading %s: %w", ErrStorage, q.path, err)
	}

	if n > len(records) {
		n = len(records)
	}
	return q.rewrite(records[n:])
}

// Len returns the number of records currently stored.
func (q *File) Len(_ context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.count
}

func (q *File) load() ([]telemetry.Reading, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return nil, err
	}
	records := q.decode(data)
	q.count = len(records)
	return records, nil
}

// decode parses every well-formed line; malformed lines are skipped.
func (q *File) decode(data []byte) []telemetry.Reading {
	records := []telemetry.Reading{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		r, err := telemetry.ParseLine(line)
		if err != nil {
			q.logger.Warn("offline queue: skipping malformed record", "line", lineNo, "error", err)
			continue
		}
		records = append(records, r)
	}
	return records
}

// rewrite atomically replaces the file contents with records.
func (q *File) rewrite(records []telemetry.Reading) error {
	dir := filepath.Dir(q.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(q.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrStorage, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()        //nolint:errcheck // cleanup on error path
			os.Remove(tmpPath) //nolint:errcheck // cleanup on error path
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		if _, err := w.WriteString(telemetry.FormatLine(r) + "\n"); err != nil {
			return fmt.Errorf("%w: writing temp file: %w", ErrStorage, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: writing temp file: %w", ErrStorage, err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		return fmt.Errorf("%w: chmod temp file: %w", ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing temp file: %w", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %w", ErrStorage, err)
	}
	if err := os.Rename(tmpPath, q.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", ErrStorage, q.path, err)
	}
	committed = true

	syncDir(dir)
	q.count = len(records)
	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports fsync on a directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()  //nolint:errcheck // best effort
	d.Close() //nolint:errcheck // read-only handle
}
