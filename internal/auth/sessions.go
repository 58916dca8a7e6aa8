package auth

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session is an issued bearer token.
type Session struct {
	Token     string
	Username  string
	Device    string
	ExpiresAt time.Time
}

// sessionRecord is the gob-encoded value kept in the store.
type sessionRecord struct {
	Username string
	Device   string
	Expires  time.Time
}

// expiryPruner is implemented by stores that can drop all expired tokens at
// once. The manager calls it on every Add instead of running a sweeper.
type expiryPruner interface {
	DeleteExpired(now time.Time) error
}

// SessionManager issues and validates bearer tokens on top of any scs.Store.
type SessionManager struct {
	store scs.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionManager(store scs.Store, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of new sessions.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// Add issues a token for username. Expired tokens are pruned first.
func (sm *SessionManager) Add(username, device string) (*Session, error) {
	now := sm.now()
	if p, ok := sm.store.(expiryPruner); ok {
		if err := p.DeleteExpired(now); err != nil {
			log.Printf("Failed to prune expired sessions: %v", err)
		}
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	rec := sessionRecord{Username: username, Device: device, Expires: now.Add(sm.ttl)}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := sm.store.Commit(token, buf.Bytes(), rec.Expires); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &Session{Token: token, Username: username, Device: device, ExpiresAt: rec.Expires}, nil
}

// PruneExpired drops expired tokens when the store supports bulk expiry.
func (sm *SessionManager) PruneExpired() error {
	if p, ok := sm.store.(expiryPruner); ok {
		return p.DeleteExpired(sm.now())
	}
	return nil
}

// UsernameIfValid returns the owner of a live token, or "" for unknown and
// expired tokens. An expired token found here is deleted.
func (sm *SessionManager) UsernameIfValid(token string) string {
	if token == "" {
		return ""
	}

	data, found, err := sm.store.Find(token)
	if err != nil {
		log.Printf("Session lookup failed: %v", err)
		return ""
	}
	if !found {
		return ""
	}

	var rec sessionRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return ""
	}
	if !sm.now().Before(rec.Expires) {
		if err := sm.store.Delete(token); err != nil {
			log.Printf("Failed to delete expired session: %v", err)
		}
		return ""
	}
	return rec.Username
}

// MemoryStore is a mutex-guarded in-process scs.Store. Sessions are lost on
// restart. Expired entries are removed when looked up or pruned.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data   []byte
	expiry time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryStore) Find(token string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[token]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(item.expiry) {
		delete(m.items, token)
		return nil, false, nil
	}
	return item.data, true, nil
}

func (m *MemoryStore) Commit(token string, b []byte, expiry time.Time) error {
	m.mu.Lock()
	m.items[token] = memoryItem{data: b, expiry: expiry}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(token string) error {
	m.mu.Lock()
	delete(m.items, token)
	m.mu.Unlock()
	return nil
}

// DeleteExpired drops every entry whose expiry is not after now.
func (m *MemoryStore) DeleteExpired(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, item := range m.items {
		if !now.Before(item.expiry) {
			delete(m.items, token)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// SQLiteStore keeps sessions in the sessions table of the main database so
// tokens survive restarts. Its background cleanup is disabled; expired rows
// are pruned by SessionManager.Add.
type SQLiteStore struct {
	*sqlite3store.SQLite3Store
	db *sql.DB
}

// NewSQLiteStore creates the sessions table if needed.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSQLiteStore(sqlDB *sql.DB) (*SQLiteStore, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLiteStore{
		SQLite3Store: sqlite3store.NewWithCleanupInterval(sqlDB, 0),
		db:           sqlDB,
	}, nil
}

// DeleteExpired removes rows whose expiry is not after now.
func (s *SQLiteStore) DeleteExpired(now time.Time) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE expiry <= julianday(?)",
		now.UTC().Format("2006-01-02T15:04:05.999"))
	return err
}
