// Package jsonfile persists a single JSON value in one file with
// read-modify-write cycles serialised per path and atomic replacement on
// every write, so readers only ever see a complete document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrCorrupt     = errors.New("document is not valid json")
	ErrUnavailable = errors.New("document storage unavailable")
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// locks holds one single-slot semaphore per absolute document path, shared by
// every Document in the process.
var locks sync.Map

func lockFor(path string) chan struct{} {
	sem, _ := locks.LoadOrStore(path, make(chan struct{}, 1))
	return sem.(chan struct{})
}

// Document is a handle on one JSON file holding a value of type T.
type Document[T any] struct {
	path string
	sem  chan struct{}

	// beforeRename runs after the temp file is fully written and synced.
	// Tests use it to simulate a crash between the write and the rename.
	beforeRename func(tmp string) error
}

func Open[T any](path string) (*Document[T], error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnavailable)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrUnavailable, path, err)
	}
	return &Document[T]{path: abs, sem: lockFor(abs)}, nil
}

func (d *Document[T]) Path() string { return d.path }

// Read returns the current value. A missing or blank file yields the zero
// value of T.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	var v T
	if err := ctx.Err(); err != nil {
		return v, fmt.Errorf("%w: read %s: %w", ErrUnavailable, d.path, err)
	}

	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("%w: read %s: %v", ErrUnavailable, d.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrCorrupt, d.path, err)
	}
	return v, nil
}

// Update runs fn against the current value while holding the document lock.
// The result is written back only when fn reports a change and returns no
// error; otherwise the file is left byte-for-byte as it was.
func (d *Document[T]) Update(ctx context.Context, fn func(v *T) (changed bool, err error)) (T, error) {
	var zero T

	if err := d.lock(ctx); err != nil {
		return zero, err
	}
	defer d.unlock()

	v, err := d.Read(ctx)
	if err != nil {
		return zero, err
	}

	changed, err := fn(&v)
	if err != nil {
		return zero, err
	}
	if !changed {
		return v, nil
	}

	if err := d.write(v); err != nil {
		return zero, err
	}
	return v, nil
}

func (d *Document[T]) lock(ctx context.Context) error {
	select {
	case d.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: lock %s: %v", ErrUnavailable, d.path, ctx.Err())
	}
}

func (d *Document[T]) unlock() { <-d.sem }

func (d *Document[T]) write(v T) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", ErrUnavailable, dir, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrUnavailable, tmpName, err)
	}

	if d.beforeRename != nil {
		if err := d.beforeRename(tmpName); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("%w: rename onto %s: %v", ErrUnavailable, d.path, err)
	}
	committed = true

	syncDir(dir)
	return nil
}

// syncDir flushes the rename where the platform allows syncing a directory.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
