// Package sync keeps a client-side copy of the shared document fresh and
// submits edits against it.
package sync

import (
	"context"

	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/store"
)

// Remote is where the canonical document lives
type Remote interface {
	Fetch(ctx context.Context) (*model.Document, error)
	Commit(ctx context.Context, doc *model.Document, baseline, actor string) (store.CommitResult, error)
}

// Local is a Remote backed directly by a store, for tools that open the
// data file themselves instead of going through a server.
type Local struct {
	store *store.Store
}

// NewLocal wraps st
func NewLocal(st *store.Store) *Local {
	return &Local{store: st}
}

// Fetch reads the store. It never fails.
func (l *Local) Fetch(ctx context.Context) (*model.Document, error) {
	doc, _ := l.store.Read(ctx)
	return doc, nil
}

// Commit writes to the store
func (l *Local) Commit(ctx context.Context, doc *model.Document, baseline, actor string) (store.CommitResult, error) {
	return l.store.Write(ctx, doc, baseline, actor)
}

var (
	_ Remote = (*Local)(nil)
	_ Remote = (*Client)(nil)
)
