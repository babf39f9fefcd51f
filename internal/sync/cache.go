package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/store"
)

// EditFunc builds the proposed document from a private copy of the cache
type EditFunc func(doc *model.Document) (*model.Document, error)

// Cache holds the last document seen from the remote and its version. The
// pair is always replaced together.
type Cache struct {
	remote Remote
	actor  string

	mu       sync.RWMutex
	doc      *model.Document
	version  string
	onChange func(doc *model.Document, version string)
}

// NewCache creates an empty cache over remote. actor is recorded as
// updated_by on every edit.
func NewCache(remote Remote, actor string) *Cache {
	return &Cache{remote: remote, actor: actor}
}

// SetOnChange sets a callback run after every swap of the cached document
func (c *Cache) SetOnChange(callback func(doc *model.Document, version string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = callback
}

// Snapshot returns a copy of the cached document and its version. The
// document is nil until the first successful Refresh.
func (c *Cache) Snapshot() (*model.Document, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Clone(), c.version
}

// Version returns the cached version, the baseline for the next edit
func (c *Cache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Refresh reads the remote and swaps in the result if its version differs.
// On error the cache keeps what it had.
func (c *Cache) Refresh(ctx context.Context) (bool, error) {
	doc, err := c.remote.Fetch(ctx)
	if err != nil {
		return false, err
	}
	return c.swap(doc), nil
}

// swap replaces the cached pair unless it already holds doc's version
func (c *Cache) swap(doc *model.Document) bool {
	c.mu.Lock()
	if c.doc != nil && doc.Version() == c.version {
		c.mu.Unlock()
		return false
	}
	c.setLocked(doc)
	return true
}

// adopt replaces the cached pair with a committed edit, but only while the
// cache still holds the edit's baseline. A newer document from a poll wins.
func (c *Cache) adopt(doc *model.Document, baseline string) bool {
	c.mu.Lock()
	if c.version != baseline {
		current := c.version
		c.mu.Unlock()
		logger.Debug("Cache moved on during commit, keeping newer document",
			logger.F("committed", doc.Version()), logger.F("cached", current))
		return false
	}
	doc.Config = c.configLocked(doc.Config)
	c.setLocked(doc)
	return true
}

// setLocked stores doc, releases c.mu and then runs the change callback
func (c *Cache) setLocked(doc *model.Document) {
	c.doc = doc
	c.version = doc.Version()
	callback := c.onChange
	snapshot := doc.Clone()
	c.mu.Unlock()

	logger.Debug("Cache updated", logger.F("version", snapshot.Version()))
	if callback != nil {
		callback(snapshot, snapshot.Version())
	}
}

// Edit applies fn to a copy of the cached document and submits the result
// with the cached version as baseline. On conflict the cache is refreshed
// and the error returned; the edit is not retried or merged.
func (c *Cache) Edit(ctx context.Context, fn EditFunc) (string, error) {
	doc, baseline := c.Snapshot()
	if doc == nil {
		if _, err := c.Refresh(ctx); err != nil {
			return "", err
		}
		doc, baseline = c.Snapshot()
	}

	proposed, err := fn(doc)
	if err != nil {
		return "", err
	}
	return c.Submit(ctx, proposed, baseline)
}

// Submit commits proposed against baseline. On success the committed
// document is adopted unless the cache has already moved past baseline.
func (c *Cache) Submit(ctx context.Context, proposed *model.Document, baseline string) (string, error) {
	res, err := c.remote.Commit(ctx, proposed, baseline, c.actor)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			logger.Info("Edit rejected by a newer version, reloading", logger.F("baseline", baseline))
			if _, rerr := c.Refresh(ctx); rerr != nil {
				logger.Warn("Reload after conflict failed", logger.F("error", rerr.Error()))
			}
		}
		return "", err
	}

	committed := proposed.Clone()
	committed.Meta = res.Meta
	committed.Meta.Version = res.Version
	c.adopt(committed, baseline)
	return res.Version, nil
}

// configLocked returns the cached config; commits never change it
func (c *Cache) configLocked(fallback model.Settings) model.Settings {
	if c.doc == nil {
		return fallback
	}
	return c.doc.Config
}
