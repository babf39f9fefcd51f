// Package storage persists the shared document as a single blob.
//
// Every backend replaces the blob atomically, so a reader always sees a
// complete previous or next document. Update runs its callback while holding
// a lock that excludes writers in other processes as well as this one.
package storage

import (
	"context"
	"errors"

	"github.com/existflow/wbsync/internal/model"
)

var (
	// ErrNotFound means no document has been persisted yet
	ErrNotFound = errors.New("document not found")
	// ErrCorrupt means the persisted blob could not be decoded
	ErrCorrupt = errors.New("document corrupt")
	// ErrLocked means the write lock could not be acquired in time
	ErrLocked = errors.New("document locked")
	// ErrChanged means another writer created the document concurrently
	ErrChanged = errors.New("document changed concurrently")
)

// UpdateFunc receives the persisted document (nil when none exists) and
// returns the document to persist, or nil to leave storage untouched.
type UpdateFunc func(current *model.Document) (*model.Document, error)

// Backend is a single-document persistence layer
type Backend interface {
	Load(ctx context.Context) (*model.Document, error)
	Update(ctx context.Context, fn UpdateFunc) error
	Location() string
	Close() error
}
