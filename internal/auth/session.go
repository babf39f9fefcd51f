package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/existflow/wbsync/internal/model"
)

// DefaultSessionTTL is how long an admin token stays valid
const DefaultSessionTTL = 12 * time.Hour

// Session is an authenticated login
type Session struct {
	Token     string     `json:"token"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Sessions keeps issued tokens in memory. Restarting the server logs
// everyone out, which is acceptable for a handful of collaborators.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

// NewSessions creates a token registry with the given lifetime
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// Create issues a new token for role
func (s *Sessions) Create(role model.Role) (Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	session := Session{
		Token:     hex.EncodeToString(tokenBytes),
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.sessions[session.Token] = session
	return session, nil
}

// Get returns the live session for token
func (s *Sessions) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if session.IsExpired(s.now()) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Revoke forgets token
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *Sessions) pruneLocked() {
	now := s.now()
	for token, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, token)
		}
	}
}
