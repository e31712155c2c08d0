package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// Store persists push registration state across process restarts. Reads
// return the zero value with ok=false when a key has never been written.
// Each key is read and written independently; implementations guarantee
// per-key atomicity but no cross-key transactions.
type Store interface {
	// Token returns the persisted registration token.
	Token() (token string, ok bool)

	// SetToken persists a new registration token.
	SetToken(token string) error

	// ClearToken removes the persisted registration token.
	ClearToken() error

	// LastVerified returns the time of the last successful verification.
	LastVerified() (t time.Time, ok bool)

	// SetLastVerified persists the time of a successful verification.
	SetLastVerified(t time.Time) error
}

// clientState is the on-disk representation of push client state.
type clientState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Token is the device registration token. Empty means no token.
	Token string `json:"token,omitempty"`

	// LastVerifiedMS is the last successful verification, in milliseconds
	// since the Unix epoch. Zero means never verified.
	LastVerifiedMS int64 `json:"last_verified_ms,omitempty"`
}

// FileStore persists client state to a JSON file. A missing file reads as
// empty state; an unreadable file also reads as empty and heals on the next
// write.
type FileStore struct {
	mu    sync.Mutex
	path  string
	state clientState
	read  bool
}

// NewFileStore creates a file-backed store at path. The file is created on
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Token returns the persisted registration token.
func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.state.Token, s.state.Token != ""
}

// SetToken persists a new registration token.
func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.state.Token = token
	return s.save()
}

// ClearToken removes the persisted registration token.
func (s *FileStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.state.Token = ""
	return s.save()
}

// LastVerified returns the time of the last successful verification.
func (s *FileStore) LastVerified() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	if s.state.LastVerifiedMS == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(s.state.LastVerifiedMS), true
}

// SetLastVerified persists the time of a successful verification.
func (s *FileStore) SetLastVerified(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.state.LastVerifiedMS = t.UnixMilli()
	return s.save()
}

// Clear removes the state file entirely.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = clientState{}
	s.read = true
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// load reads the state file once. Callers must hold the lock.
func (s *FileStore) load() {
	if s.read {
		return
	}
	s.read = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var state clientState
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}
	s.state = state
}

// save writes the state file. Callers must hold the lock.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	s.state.Version = StateVersion
	s.state.SavedAt = time.Now()

	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return err
	}

	// Tokens are registration credentials; keep the file owner-only.
	return os.WriteFile(s.path, data, 0600)
}

// MemoryStore keeps client state in memory. Useful for tests and for hosts
// that manage persistence themselves.
type MemoryStore struct {
	mu           sync.Mutex
	token        string
	hasToken     bool
	lastVerified time.Time
	hasVerified  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the stored registration token.
func (s *MemoryStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.hasToken
}

// SetToken stores a new registration token.
func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.hasToken = true
	return nil
}

// ClearToken removes the stored registration token.
func (s *MemoryStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.hasToken = false
	return nil
}

// LastVerified returns the time of the last successful verification.
func (s *MemoryStore) LastVerified() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVerified, s.hasVerified
}

// SetLastVerified stores the time of a successful verification.
func (s *MemoryStore) SetLastVerified(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerified = t
	s.hasVerified = true
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
