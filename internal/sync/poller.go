package sync

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
)

// Poller refreshes a cache on a fixed interval. With no explicit interval it
// follows config.polling_interval of the last document it received.
type Poller struct {
	cache *Cache
	fixed bool

	mu       sync.Mutex
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
}

// NewPoller creates a poller for cache. An interval of zero means follow the
// document.
func NewPoller(cache *Cache, interval time.Duration) *Poller {
	p := &Poller{cache: cache, fixed: interval > 0, interval: interval}
	if !p.fixed {
		p.interval = model.DefaultPollingInterval
	}
	return p
}

// Interval returns the current polling interval
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Start polls immediately and then on every tick until Stop or ctx ends.
// Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.pollLoop(ctx, p.stopCh, p.done)
}

// Stop ends the loop and waits for an in-flight poll to finish
func (p *Poller) Stop() {
	p.mu.Lock()
	stopCh, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (p *Poller) pollLoop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	p.poll(ctx)
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.poll(ctx) {
				ticker.Reset(p.Interval())
			}
		case <-stopCh:
			return
		case <-ctx.Done():
			p.release(stopCh)
			return
		}
	}
}

// release forgets a loop that ended on its own, so Start can run a new one.
// A concurrent Stop or Start may already have replaced stopCh.
func (p *Poller) release(stopCh chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh == stopCh {
		p.stopCh, p.done = nil, nil
	}
}

// poll refreshes the cache once and reports whether the interval changed
func (p *Poller) poll(ctx context.Context) bool {
	if _, err := p.cache.Refresh(ctx); err != nil {
		logger.Warn("Poll failed, keeping cached document", logger.F("error", err.Error()))
		return false
	}
	if p.fixed {
		return false
	}

	doc, _ := p.cache.Snapshot()
	if doc == nil {
		return false
	}
	next := doc.Config.Interval()

	p.mu.Lock()
	defer p.mu.Unlock()
	if next == p.interval {
		return false
	}
	logger.Info("Polling interval changed", logger.F("from", p.interval.String()), logger.F("to", next.String()))
	p.interval = next
	return true
}
