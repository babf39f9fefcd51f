package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/existflow/wbsync/internal/model"
	"github.com/gofrs/flock"
)

const (
	defaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// File stores the document as indented JSON. Writes go to a temp file in the
// same directory which is synced and renamed over the target. A sibling
// ".lock" file serializes writers across processes sharing the data file.
type File struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	mu          sync.Mutex
}

// NewFile creates a file backend rooted at path, creating its directory
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &File{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
	}, nil
}

// SetLockTimeout bounds how long Update waits for the cross-process lock
func (f *File) SetLockTimeout(d time.Duration) {
	f.lockTimeout = d
}

// Location returns the data file path
func (f *File) Location() string {
	return f.path
}

// Load reads the current document. Rename-based writes mean no lock is needed.
func (f *File) Load(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.read()
}

// Update runs fn under the exclusive lock and persists its result
func (f *File) Update(ctx context.Context, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, f.lockTimeout)
	defer cancel()

	locked, err := f.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("%w: %s: %v", ErrLocked, f.lock.Path(), err)
	}
	defer func() {
		_ = f.lock.Unlock()
	}()

	current, err := f.read()
	if errors.Is(err, ErrNotFound) {
		current = nil
	} else if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	return f.write(next)
}

// Close releases the lock handle
func (f *File) Close() error {
	return f.lock.Close()
}

func (f *File) read() (*model.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorrupt, f.path)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	doc.Normalize()
	return &doc, nil
}

func (f *File) write(doc *model.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return WriteFileAtomic(f.path, data)
}

// WriteFileAtomic writes data to a temp file beside path, syncs it and renames
// it over path. Readers see either the old or the new content, never a mix.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows it
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
