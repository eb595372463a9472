package feedsdk

import "sync"

// TokenStore is the single persistence boundary for the access token. It
// must be readable synchronously before any network call is issued, and it
// performs no validation: dead or malformed tokens are detected by callers.
//
// The persistence medium may be shared with other processes ("tabs"), so a
// token loaded a moment ago can be cleared underneath us at any time. Load
// reports absence, it never fails.
type TokenStore interface {
	// Load returns the stored token and whether one is present.
	Load() (string, bool)

	// Save replaces the stored token. Only a successful login or refresh
	// calls this.
	Save(token string) error

	// Clear removes the stored token. Clearing an empty store is a no-op.
	Clear() error
}

// MemoryTokenStore is a process-local TokenStore. The CLI uses the SQLite
// store; this one serves tests and embedders that manage persistence
// themselves.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (m *MemoryTokenStore) Load() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.set = true
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.set = false
	return nil
}
