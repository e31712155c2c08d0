package mock

import (
	"sync"
	"time"

	"github.com/pushline/pushline-go/pkg/persistence"
)

// Store wraps an in-memory persistence.Store with scriptable failures
// and write counters.
type Store struct {
	mu sync.RWMutex

	inner *persistence.MemoryStore

	// Errors returned by the corresponding write when set.
	SetTokenErr        error
	ClearTokenErr      error
	SetLastVerifiedErr error

	setTokenCalls        int
	setLastVerifiedCalls int
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{inner: persistence.NewMemoryStore()}
}

// Token returns the stored token.
func (s *Store) Token() (string, bool) {
	return s.inner.Token()
}

// SetToken stores the token, or fails when scripted to.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	s.setTokenCalls++
	err := s.SetTokenErr
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.inner.SetToken(token)
}

// ClearToken removes the token, or fails when scripted to.
func (s *Store) ClearToken() error {
	s.mu.RLock()
	err := s.ClearTokenErr
	s.mu.RUnlock()

	if err != nil {
		return err
	}
	return s.inner.ClearToken()
}

// LastVerified returns the stored verification timestamp.
func (s *Store) LastVerified() (time.Time, bool) {
	return s.inner.LastVerified()
}

// SetLastVerified stores the timestamp, or fails when scripted to.
func (s *Store) SetLastVerified(t time.Time) error {
	s.mu.Lock()
	s.setLastVerifiedCalls++
	err := s.SetLastVerifiedErr
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.inner.SetLastVerified(t)
}

// SetTokenCalls returns the number of SetToken calls.
func (s *Store) SetTokenCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setTokenCalls
}

// SetLastVerifiedCalls returns the number of SetLastVerified calls.
func (s *Store) SetLastVerifiedCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setLastVerifiedCalls
}

// Compile-time interface satisfaction check.
var _ persistence.Store = (*Store)(nil)
