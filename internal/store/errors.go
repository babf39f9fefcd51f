package store

import (
	"errors"
	"fmt"

	"github.com/existflow/wbsync/internal/storage"
)

var (
	// ErrConflict means the write was prepared against a stale version.
	// The caller must re-read before retrying.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidData means the proposed document breaks a hierarchy invariant.
	// The wrapped *hierarchy.ViolationError names it.
	ErrInvalidData = errors.New("invalid document")
	// ErrStorageUnavailable means the backend could not be read or written
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrBackupDisabled is returned by Backup when no backup directory is set
	ErrBackupDisabled = errors.New("backups are disabled")
)

// ConflictError carries the versions that failed to match
type ConflictError struct {
	Expected string
	Current  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %q, current %q", e.Expected, e.Current)
}

// Is lets errors.Is(err, ErrConflict) match
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// classify maps a backend or callback error onto the store's taxonomy
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidData):
		return err
	case errors.Is(err, storage.ErrChanged):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}
