package store

import "github.com/existflow/wbsync/internal/model"

// checkBaseline compares the caller's baseline with the committed version.
// Tokens are opaque, so only exact equality counts. An empty baseline is
// accepted only while nothing has been committed.
func checkBaseline(current *model.Document, baseline string) error {
	if current.Version() == baseline {
		return nil
	}
	return &ConflictError{Expected: baseline, Current: current.Version()}
}
