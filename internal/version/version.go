// Package version issues the document's version tokens.
//
// Tokens are ULIDs, so each one sorts after the one it replaces, even when the
// clock stalls or steps backwards. Callers must still treat them as opaque and
// compare them for equality only.
package version

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Authority mints strictly increasing version tokens
type Authority struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
	last    ulid.ULID
}

// New creates an authority backed by the system clock
func New() *Authority {
	return NewWithClock(time.Now)
}

// NewWithClock creates an authority that reads time from now
func NewWithClock(now func() time.Time) *Authority {
	return &Authority{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

// Next returns a token that sorts after prev and after every token this
// authority issued before. prev may be empty or a token minted elsewhere; a
// prev that is not a ULID (for example a document written by an older tool)
// is ignored.
func (a *Authority) Next(prev string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	floor := a.last
	if p, err := ulid.ParseStrict(prev); err == nil && p.Compare(floor) > 0 {
		floor = p
	}

	ms := ulid.Timestamp(a.now())
	var next ulid.ULID
	if ms <= floor.Time() {
		next = increment(floor)
	} else {
		id, err := ulid.New(ms, a.entropy)
		if err != nil {
			id = increment(floor)
		}
		next = id
	}

	a.last = next
	return next.String()
}

// increment adds one to the 128-bit value, carrying into the timestamp
func increment(id ulid.ULID) ulid.ULID {
	for i := len(id) - 1; i >= 0; i-- {
		id[i]++
		if id[i] != 0 {
			break
		}
	}
	return id
}
