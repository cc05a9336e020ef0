package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopchat/backend/internal/domain"
)

type session struct {
	entries   []domain.ChatHistoryEntry
	busy      bool
	updatedAt time.Time
}

// MemoryStore keeps per-session chat history in process memory.
// Sessions idle for longer than the configured TTL are swept.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	maxEntries int
	idleTTL    time.Duration
	now        func() time.Time
	done       chan struct{}
	once       sync.Once
}

// NewMemoryStore creates a store trimming each session to maxEntries
func NewMemoryStore(maxEntries int, idleTTL time.Duration) *MemoryStore {
	m := &MemoryStore{
		sessions:   make(map[string]*session),
		maxEntries: maxEntries,
		idleTTL:    idleTTL,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if idleTTL > 0 {
		go m.sweep(idleTTL / 2)
	}
	return m
}

// Create starts a new empty session
func (m *MemoryStore) Create() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "session_" + uuid.NewString()
	now := m.now()
	m.sessions[id] = &session{updatedAt: now}
	return domain.Session{SessionID: id, History: []domain.ChatHistoryEntry{}, UpdatedAt: now}
}

// Append adds an entry, creating the session if it does not exist yet
func (m *MemoryStore) Append(sessionID string, entry domain.ChatHistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreateLocked(sessionID)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}
	s.entries = append(s.entries, entry)
	s.updatedAt = m.now()

	if m.maxEntries > 0 && len(s.entries) > m.maxEntries {
		s.entries = s.entries[len(s.entries)-m.maxEntries:]
	}
}

// Get returns a copy of the session transcript
func (m *MemoryStore) Get(sessionID string) ([]domain.ChatHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.ChatHistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// TryAcquire marks the session busy. It returns false when a send is
// already in flight for the session.
func (m *MemoryStore) TryAcquire(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreateLocked(sessionID)
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// Release clears the busy flag set by TryAcquire
func (m *MemoryStore) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		s.busy = false
		s.updatedAt = m.now()
	}
}

// Len returns the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the idle sweeper
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *MemoryStore) getOrCreateLocked(sessionID string) *session {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{updatedAt: m.now()}
		m.sessions[sessionID] = s
	}
	return s
}

func (m *MemoryStore) sweep(interval time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

// evictIdle drops sessions untouched for longer than idleTTL.
// Busy sessions are kept.
func (m *MemoryStore) evictIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	evicted := 0
	for id, s := range m.sessions {
		if !s.busy && s.updatedAt.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
