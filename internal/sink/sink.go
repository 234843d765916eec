// Package sink accumulates extracted records into a CSV or XLSX table.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/extract"
)

// ErrUnsupportedTable is returned for output paths that are neither CSV nor XLSX
var ErrUnsupportedTable = errors.New("unsupported table format")

const (
	defaultSaveRetries = 3
	defaultSaveBackoff = 500 * time.Millisecond
	lockRetryDelay     = 100 * time.Millisecond
)

// Table is an append-only set of rows with one column per label
type Table interface {
	Append(rec extract.Record)
	Save(ctx context.Context) error
	Len() int
	Columns() []string
	Path() string
}

// codec reads and writes a whole table in one file format
type codec interface {
	decode(data []byte) (header []string, rows [][]string, err error)
	encode(header []string, rows [][]string) ([]byte, error)
}

// Option customizes a file table
type Option func(*FileTable)

// WithSaveRetries sets how often a failed save is retried and the initial backoff
func WithSaveRetries(retries uint64, backoff time.Duration) Option {
	return func(t *FileTable) {
		t.retries = retries
		t.backoff = backoff
	}
}

// FileTable is a Table backed by a single file. Rows already present in the
// file are loaded on open and written back on every save.
type FileTable struct {
	fs      afero.Fs
	path    string
	codec   codec
	retries uint64
	backoff time.Duration
	locking bool

	mu     sync.Mutex
	header []string
	rows   [][]string
	dirty  bool
}

// Open loads the table at path, or starts an empty one when the file does not
// exist. The columns are the existing header followed by any label it lacks.
// A table that is new or gained columns is written on the next save even
// without rows.
func Open(fs afero.Fs, path string, labels []string, opts ...Option) (*FileTable, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	_, osBacked := fs.(*afero.OsFs)
	t := &FileTable{
		fs:      fs,
		path:    path,
		codec:   c,
		retries: defaultSaveRetries,
		backoff: defaultSaveBackoff,
		locking: osBacked,
	}
	for _, opt := range opts {
		opt(t)
	}

	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		header, rows, err := c.decode(data)
		if err != nil {
			return nil, fmt.Errorf("cannot read existing table %s: %w", path, err)
		}
		t.header = header
		t.rows = rows
	case errors.Is(err, os.ErrNotExist):
		t.dirty = true
	default:
		return nil, fmt.Errorf("cannot open table %s: %w", path, err)
	}

	width := len(t.header)
	for _, label := range labels {
		t.addColumn(label)
	}
	if len(t.header) != width {
		t.dirty = true
	}
	return t, nil
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvCodec{}, nil
	case ".xlsx":
		return xlsxCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTable, filepath.Base(path))
	}
}

func (t *FileTable) addColumn(name string) int {
	for i, col := range t.header {
		if col == name {
			return i
		}
	}
	t.header = append(t.header, name)
	return len(t.header) - 1
}

// Append adds one row. Columns the record has no label for stay empty.
func (t *FileTable) Append(rec extract.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, label := range rec.Labels() {
		t.addColumn(label)
	}

	row := make([]string, len(t.header))
	for i, col := range t.header {
		row[i] = rec.Value(col)
	}
	t.rows = append(t.rows, row)
	t.dirty = true
}

// Len returns the number of rows, including those loaded from disk
func (t *FileTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Columns returns the header in order
func (t *FileTable) Columns() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.header...)
}

// Path returns the file the table is saved to
func (t *FileTable) Path() string {
	return t.path
}

// Save writes the whole table. A write that fails, typically because the file
// is open in a spreadsheet program, is retried with exponential backoff. Rows
// stay in memory when every attempt fails.
func (t *FileTable) Save(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty {
		return nil
	}

	data, err := t.codec.encode(t.header, padRows(t.rows, len(t.header)))
	if err != nil {
		return fmt.Errorf("cannot encode table: %w", err)
	}

	if err := t.fs.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(t.path), err)
	}

	if t.locking {
		lock := flock.New(t.path + ".lock")
		locked, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("cannot lock %s: %w", t.path, err)
		}
		if !locked {
			return fmt.Errorf("cannot lock %s: held by another process", t.path)
		}
		defer func() {
			_ = lock.Unlock()
			_ = os.Remove(lock.Path())
		}()
	}

	backoff := retry.WithMaxRetries(t.retries, retry.NewExponential(t.backoff))
	err = retry.Do(ctx, backoff, func(_ context.Context) error {
		if err := t.write(data); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot save table %s: %w", t.path, err)
	}

	t.dirty = false
	return nil
}

// write replaces the table file through a temporary sibling
func (t *FileTable) write(data []byte) error {
	tmp := t.path + ".tmp"
	if err := afero.WriteFile(t.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := t.fs.Rename(tmp, t.path); err != nil {
		_ = t.fs.Remove(tmp)
		return err
	}
	return nil
}

func padRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) >= width {
			out[i] = row[:width]
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
