// Package store owns the canonical work-breakdown document.
//
// Every write is a conditional commit: it names the version it was prepared
// against and succeeds only while that is still the committed version. The
// winner gets a fresh version token; everyone else gets ErrConflict and must
// re-read. Reads never fail. When the backend cannot be read they return a
// seeded default document that is never persisted.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/existflow/wbsync/internal/version"
)

// BackupTimeLayout names backup files, e.g. data_backup_20240603_141500.json
const BackupTimeLayout = "20060102_150405"

// CommitResult describes a successful commit
type CommitResult struct {
	Version string     `json:"new_version"`
	Meta    model.Meta `json:"meta"`
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the wall clock used for meta.last_updated and the seed
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithVersionAuthority overrides the version token source
func WithVersionAuthority(a *version.Authority) Option {
	return func(s *Store) { s.versions = a }
}

// WithBackupDir enables Backup, writing into dir
func WithBackupDir(dir string) Option {
	return func(s *Store) { s.backupDir = dir }
}

// Store serializes all commits against a single backend
type Store struct {
	mu        sync.RWMutex
	backend   storage.Backend
	versions  *version.Authority
	now       func() time.Time
	backupDir string

	// fallback is served while the backend is unreadable so repeated reads
	// return the same document and version
	fallbackMu sync.Mutex
	fallback   *model.Document
}

// New creates a store over backend
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.versions == nil {
		s.versions = version.NewWithClock(s.now)
	}
	return s
}

// Location describes where the document is persisted
func (s *Store) Location() string {
	return s.backend.Location()
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Read returns a copy of the committed document and its version. An empty
// backend is seeded on first access. When storage cannot be read a seeded
// fallback is served instead; use Current where that is not acceptable.
func (s *Store) Read(ctx context.Context) (*model.Document, string) {
	doc, version, err := s.Current(ctx)
	if err != nil {
		logger.Warn("Failed to read document, serving seeded fallback",
			logger.F("location", s.backend.Location()),
			logger.F("error", err.Error()),
		)
		doc = s.fallbackDocument()
		return doc, doc.Version()
	}
	return doc, version
}

// Current is Read without the fallback. Storage failures are returned as
// ErrStorageUnavailable, so callers that authenticate or modify the document
// never act on the seeded defaults.
func (s *Store) Current(ctx context.Context) (*model.Document, string, error) {
	s.mu.RLock()
	doc, err := s.backend.Load(ctx)
	s.mu.RUnlock()

	if errors.Is(err, storage.ErrNotFound) {
		doc, _, err = s.bootstrap(ctx)
	}
	if err != nil {
		return nil, "", classify(err)
	}

	s.clearFallback()
	return doc, doc.Version(), nil
}

// bootstrap commits the seed document unless another writer got there first,
// in which case their document is adopted and reported as such.
func (s *Store) bootstrap(ctx context.Context) (*model.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var committed *model.Document
	adopted := false
	err := s.backend.Update(ctx, func(current *model.Document) (*model.Document, error) {
		if current != nil {
			committed, adopted = current, true
			return nil, nil
		}
		seed, err := s.seed(current)
		if err != nil {
			return nil, err
		}
		committed = seed
		return seed, nil
	})
	if errors.Is(err, storage.ErrChanged) {
		doc, err := s.backend.Load(ctx)
		return doc, true, err
	}
	if err != nil {
		return nil, false, err
	}

	msg := "Document seeded"
	if adopted {
		msg = "Adopted existing document"
	}
	logger.Info(msg,
		logger.F("version", committed.Version()),
		logger.F("location", s.backend.Location()),
	)
	return committed.Clone(), adopted, nil
}

func (s *Store) seed(current *model.Document) (*model.Document, error) {
	doc, err := seedDocument(model.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	doc.Normalize()
	s.stamp(doc, current, SeedActor)
	return doc, nil
}

func (s *Store) fallbackDocument() *model.Document {
	s.fallbackMu.Lock()
	defer s.fallbackMu.Unlock()

	if s.fallback == nil {
		doc, err := s.seed(nil)
		if err != nil {
			// Hashing only fails on exhausted entropy. Serve the seed without
			// an admin secret so nobody can authenticate against it.
			doc = &model.Document{Users: []model.User{}, Tasks: []model.Task{}}
			s.stamp(doc, nil, SeedActor)
		}
		s.fallback = doc
	}
	return s.fallback.Clone()
}

func (s *Store) clearFallback() {
	s.fallbackMu.Lock()
	s.fallback = nil
	s.fallbackMu.Unlock()
}

// Write commits proposed if baseline is still the committed version and the
// document passes validation. The committed config is always kept; use
// SaveSettings to change it. actor is recorded as meta.updated_by.
func (s *Store) Write(ctx context.Context, proposed *model.Document, baseline, actor string) (CommitResult, error) {
	if proposed == nil {
		return CommitResult{}, fmt.Errorf("%w: no document", ErrInvalidData)
	}

	return s.commit(ctx, baseline, actor, func(current *model.Document) (*model.Document, error) {
		next := proposed.Clone()
		next.Normalize()
		if current != nil {
			next.Config = current.Config
		} else {
			settings, err := seedSettings()
			if err != nil {
				return nil, err
			}
			next.Config = settings
		}
		if err := hierarchy.Validate(next); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		return next, nil
	})
}

// SaveSettings replaces only the config block. Users and tasks are carried
// over from the committed document unchanged.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings, baseline, actor string) (CommitResult, error) {
	return s.commit(ctx, baseline, actor, func(current *model.Document) (*model.Document, error) {
		if current == nil {
			return nil, &ConflictError{Expected: baseline}
		}
		if err := hierarchy.ValidateSettings(settings); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		next := current.Clone()
		next.Config = settings
		return next, nil
	})
}

// commit runs the compare-and-commit inside the backend's write lock. build
// only runs once the baseline has matched.
func (s *Store) commit(ctx context.Context, baseline, actor string, build func(current *model.Document) (*model.Document, error)) (CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result CommitResult
	err := s.backend.Update(ctx, func(current *model.Document) (*model.Document, error) {
		if err := checkBaseline(current, baseline); err != nil {
			return nil, err
		}
		next, err := build(current)
		if err != nil {
			return nil, err
		}
		s.stamp(next, current, actor)
		result = CommitResult{Version: next.Meta.Version, Meta: next.Meta}
		return next, nil
	})
	if err != nil {
		err = classify(err)
		logger.Debug("Commit rejected",
			logger.F("baseline", baseline),
			logger.F("actor", actor),
			logger.F("error", err.Error()),
		)
		return CommitResult{}, err
	}

	s.clearFallback()
	logger.Info("Document committed",
		logger.F("version", result.Version),
		logger.F("updated_by", result.Meta.UpdatedBy),
	)
	return result, nil
}

// stamp mints the next version for doc, which replaces current
func (s *Store) stamp(doc, current *model.Document, actor string) {
	if actor == "" {
		actor = UnknownActor
	}
	doc.Meta = model.Meta{
		Version:     s.versions.Next(current.Version()),
		LastUpdated: s.now().Unix(),
		UpdatedBy:   actor,
	}
}

// Backup writes a copy of the committed document into the backup directory
// and returns its path.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if s.backupDir == "" {
		return "", ErrBackupDisabled
	}

	s.mu.RLock()
	doc, err := s.backend.Load(ctx)
	s.mu.RUnlock()
	if err != nil {
		return "", classify(err)
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create backup directory: %w", ErrStorageUnavailable, err)
	}
	data, err := encode(doc)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.backupDir, "data_backup_"+s.now().Format(BackupTimeLayout)+".json")
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	logger.Info("Backup written", logger.F("path", path), logger.F("version", doc.Version()))
	return path, nil
}
